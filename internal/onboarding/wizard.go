package onboarding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lora-lending/lora/internal/logging"
	"github.com/lora-lending/lora/internal/metrics"
)

const (
	defaultResendCountdown = 300
	defaultStaticCode      = "123456"
)

// Profile is everything the wizard collected, handed to the Registrar once
// the PIN pair is confirmed.
type Profile struct {
	Phone        string
	PIN          string
	Details      Details
	Address      Address
	ProfileImage string
}

// Registrar turns a completed profile into an account and returns its id.
type Registrar interface {
	Register(ctx context.Context, profile Profile) (string, error)
}

// Navigator receives control when the wizard exits to another screen.
type Navigator interface {
	Navigate(ctx context.Context, destination Destination)
}

// MediaPicker asks the user for a photo. ok is false when the user cancelled.
type MediaPicker interface {
	Pick(ctx context.Context) (locator string, ok bool, err error)
}

// Options configures a Wizard. Zero values fall back to the demo defaults.
type Options struct {
	Codes           CodeVerifier
	Registrar       Registrar
	Navigator       Navigator
	ResendCountdown int
	TickInterval    time.Duration
	Now             func() time.Time
	Logger          *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Codes == nil {
		o.Codes = StaticCodes{Code: defaultStaticCode}
	}
	if o.ResendCountdown <= 0 {
		o.ResendCountdown = defaultResendCountdown
	}
	if o.TickInterval <= 0 {
		o.TickInterval = time.Second
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = logging.Discard()
	}
	return o
}

// Wizard is the onboarding state machine. It owns one form record per step
// and only changes step along the transition table. All methods are safe
// for concurrent use.
type Wizard struct {
	mu   sync.Mutex
	opts Options

	step   Step
	exit   Destination
	userID string
	closed bool

	registration Registration
	code         *DigitField
	countdown    *Countdown
	details      Details
	address      Address
	pin          *DigitField
	confirm      *DigitField
	profileImage string
}

// New returns a wizard positioned on the registration step.
func New(opts Options) *Wizard {
	return &Wizard{
		opts:         opts.withDefaults(),
		step:         StepRegistration,
		registration: Registration{Phone: PhonePrefix},
		code:         NewDigitField(CodeLength),
		pin:          NewDigitField(PinLength),
		confirm:      NewDigitField(PinLength),
	}
}

// State is a read-only snapshot of the wizard. PIN digits are never exposed.
type State struct {
	Step          Step         `json:"step"`
	Destination   Destination  `json:"destination,omitempty"`
	UserID        string       `json:"user_id,omitempty"`
	Registration  Registration `json:"registration"`
	Code          []string     `json:"code"`
	CodeFocus     int          `json:"code_focus"`
	ResendIn      int          `json:"resend_in"`
	ResendEnabled bool         `json:"resend_enabled"`
	Details       Details      `json:"details"`
	Address       Address      `json:"address"`
	PinFilled     []bool       `json:"pin_filled"`
	PinFocus      int          `json:"pin_focus"`
	ConfirmFilled []bool       `json:"confirm_filled"`
	ConfirmFocus  int          `json:"confirm_focus"`
	ProfileImage  string       `json:"profile_image,omitempty"`
}

// State returns a snapshot of the current step and form records.
func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := State{
		Step:          w.step,
		Destination:   w.exit,
		UserID:        w.userID,
		Registration:  w.registration,
		Code:          w.code.Slots(),
		CodeFocus:     w.code.Focus(),
		Details:       w.details,
		Address:       w.address,
		PinFilled:     w.pin.Filled(),
		PinFocus:      w.pin.Focus(),
		ConfirmFilled: w.confirm.Filled(),
		ConfirmFocus:  w.confirm.Focus(),
		ProfileImage:  w.profileImage,
	}
	if w.countdown != nil {
		s.ResendIn = w.countdown.Remaining()
		s.ResendEnabled = s.ResendIn == 0
	}
	return s
}

// Step returns the current step.
func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// Advance moves one step forward. It does not validate the form; callers
// are expected to have done so. Moves not in the table are rejected.
func (w *Wizard) Advance(to Step) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.open(); err != nil {
		return err
	}
	if err := CheckAdvance(w.step, to); err != nil {
		return err
	}
	w.moveTo(to)
	return nil
}

// Retreat moves one step backward. Moves not in the table are rejected.
func (w *Wizard) Retreat(to Step) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.open(); err != nil {
		return err
	}
	if err := CheckRetreat(w.step, to); err != nil {
		return err
	}
	w.moveTo(to)
	return nil
}

// Back returns to the predecessor step, or hands control to the welcome
// screen from the first step. It reports where the user ended up.
func (w *Wizard) Back(ctx context.Context) (Step, Destination, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.open(); err != nil {
		return w.step, w.exit, err
	}
	prev, ok := w.step.Prev()
	if !ok {
		w.leave(ctx, DestinationWelcome)
		return w.step, w.exit, nil
	}
	w.moveTo(prev)
	return w.step, "", nil
}

// EditPhone applies a raw edit to the phone field and returns the
// normalized value.
func (w *Wizard) EditPhone(text string) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.at(StepRegistration); err != nil {
		return "", err
	}
	w.registration.Phone = NormalizePhone(text)
	return w.registration.Phone, nil
}

// SetTermsAgreed records the terms checkbox.
func (w *Wizard) SetTermsAgreed(agreed bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.at(StepRegistration); err != nil {
		return err
	}
	w.registration.Agreed = agreed
	return nil
}

// SubmitRegistration validates the phone step, issues a code and moves to
// verification, which starts the resend countdown.
func (w *Wizard) SubmitRegistration(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.at(StepRegistration); err != nil {
		return err
	}
	if err := ValidateRegistration(w.registration); err != nil {
		return w.reject(err)
	}
	if err := w.opts.Codes.Issue(ctx, w.registration.Phone); err != nil {
		return fmt.Errorf("issue verification code: %w", err)
	}
	w.moveTo(StepVerification)
	return nil
}

// EditCode writes into one MPIN box and returns the box that should take focus.
func (w *Wizard) EditCode(index int, text string) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.at(StepVerification); err != nil {
		return 0, err
	}
	return w.code.Set(index, text)
}

// BackspaceCode handles a backspace in one MPIN box.
func (w *Wizard) BackspaceCode(index int) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.at(StepVerification); err != nil {
		return 0, err
	}
	return w.code.Backspace(index)
}

// Verify checks the entered MPIN. A wrong code leaves the digits in place.
func (w *Wizard) Verify(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.at(StepVerification); err != nil {
		return err
	}
	if !w.code.Complete() {
		return w.reject(ErrCodeIncomplete)
	}
	ok, err := w.opts.Codes.Verify(ctx, w.registration.Phone, w.code.Value())
	if err != nil {
		return fmt.Errorf("verify code: %w", err)
	}
	if !ok {
		return w.reject(ErrInvalidCode)
	}
	w.moveTo(StepDetails)
	return nil
}

// Resend issues a new code once the countdown reached zero, clears the
// entered digits and restarts the countdown.
func (w *Wizard) Resend(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.at(StepVerification); err != nil {
		return err
	}
	if w.countdown != nil && !w.countdown.Expired() {
		return w.reject(ErrResendUnavailable)
	}
	if err := w.opts.Codes.Issue(ctx, w.registration.Phone); err != nil {
		return fmt.Errorf("issue verification code: %w", err)
	}
	w.code.Reset()
	if w.countdown == nil {
		w.countdown = StartCountdown(w.opts.ResendCountdown, w.opts.TickInterval)
	} else {
		w.countdown.Reset()
	}
	w.opts.Logger.Info("verification code resent", slog.String("phone", w.registration.Phone))
	return nil
}

// UpdateDetails applies edit to the details record. The birthdate is kept
// in the MM/DD/YYYY mask.
func (w *Wizard) UpdateDetails(edit func(*Details)) (Details, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.at(StepDetails); err != nil {
		return Details{}, err
	}
	edit(&w.details)
	w.details.Birthdate = FormatBirthdate(w.details.Birthdate)
	return w.details, nil
}

// SubmitDetails validates the details record and moves to the address step.
func (w *Wizard) SubmitDetails() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.at(StepDetails); err != nil {
		return err
	}
	if err := ValidateDetails(w.details, w.opts.Now()); err != nil {
		return w.reject(err)
	}
	w.moveTo(StepAddress)
	return nil
}

// UpdateAddress applies edit to the address record.
func (w *Wizard) UpdateAddress(edit func(*Address)) (Address, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.at(StepAddress); err != nil {
		return Address{}, err
	}
	edit(&w.address)
	return w.address, nil
}

// SubmitAddress validates the address record and moves to the PIN step.
func (w *Wizard) SubmitAddress() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.at(StepAddress); err != nil {
		return err
	}
	if err := ValidateAddress(w.address); err != nil {
		return w.reject(err)
	}
	w.moveTo(StepPin)
	return nil
}

// EditPin writes into one box of the PIN or, with confirm set, of the
// confirmation PIN.
func (w *Wizard) EditPin(index int, text string, confirm bool) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.at(StepPin); err != nil {
		return 0, err
	}
	return w.pinField(confirm).Set(index, text)
}

// BackspacePin handles a backspace in one PIN box.
func (w *Wizard) BackspacePin(index int, confirm bool) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.at(StepPin); err != nil {
		return 0, err
	}
	return w.pinField(confirm).Backspace(index)
}

// SubmitPin checks the PIN pair, registers the account and hands control to
// the dashboard. A registrar failure leaves the wizard on the PIN step.
func (w *Wizard) SubmitPin(ctx context.Context) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.at(StepPin); err != nil {
		return "", err
	}
	if err := ValidatePinPair(w.pin.Value(), w.confirm.Value()); err != nil {
		return "", w.reject(err)
	}
	if w.opts.Registrar != nil {
		userID, err := w.opts.Registrar.Register(ctx, Profile{
			Phone:        w.registration.Phone,
			PIN:          w.pin.Value(),
			Details:      w.details,
			Address:      w.address,
			ProfileImage: w.profileImage,
		})
		if err != nil {
			return "", fmt.Errorf("register account: %w", err)
		}
		w.userID = userID
	}
	w.leave(ctx, DestinationDashboard)
	return w.userID, nil
}

// PickProfileImage asks picker for a photo and keeps its locator. A
// cancelled pick leaves the current image untouched.
func (w *Wizard) PickProfileImage(ctx context.Context, picker MediaPicker) (bool, error) {
	locator, ok, err := picker.Pick(ctx)
	if err != nil {
		return false, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.open(); err != nil {
		return false, err
	}
	if ok {
		w.profileImage = locator
	}
	return ok, nil
}

// Close cancels the resend countdown and retires the wizard. State stays
// readable; every later action fails with ErrSessionNotFound.
func (w *Wizard) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	w.stopCountdown()
}

// countdownActive reports whether a resend timer goroutine is outstanding.
func (w *Wizard) countdownActive() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.countdown != nil && w.countdown.Active()
}

func (w *Wizard) pinField(confirm bool) *DigitField {
	if confirm {
		return w.confirm
	}
	return w.pin
}

func (w *Wizard) open() error {
	if w.closed {
		return ErrSessionNotFound
	}
	switch w.exit {
	case DestinationDashboard:
		return ErrCompleted
	case DestinationWelcome:
		return ErrAbandoned
	}
	return nil
}

func (w *Wizard) at(step Step) error {
	if err := w.open(); err != nil {
		return err
	}
	if w.step != step {
		return fmt.Errorf("%w: at %s, not %s", ErrStepMismatch, w.step, step)
	}
	return nil
}

// moveTo must be called with mu held and only for table-checked targets.
func (w *Wizard) moveTo(to Step) {
	from := w.step
	if from == StepVerification {
		w.stopCountdown()
	}
	w.step = to
	if to == StepVerification && !w.closed {
		w.countdown = StartCountdown(w.opts.ResendCountdown, w.opts.TickInterval)
	}
	metrics.WizardTransitions.WithLabelValues(string(from), string(to)).Inc()
	w.opts.Logger.Debug("onboarding step changed", slog.String("from", string(from)), slog.String("to", string(to)))
}

func (w *Wizard) leave(ctx context.Context, destination Destination) {
	w.stopCountdown()
	w.exit = destination
	metrics.WizardTransitions.WithLabelValues(string(w.step), string(destination)).Inc()
	w.opts.Logger.Info("onboarding exited", slog.String("step", string(w.step)), slog.String("destination", string(destination)))
	if w.opts.Navigator != nil {
		w.opts.Navigator.Navigate(ctx, destination)
	}
}

func (w *Wizard) stopCountdown() {
	if w.countdown != nil {
		w.countdown.Cancel()
		w.countdown = nil
	}
}

func (w *Wizard) reject(err error) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		metrics.WizardValidationFailures.WithLabelValues(string(w.step), ve.Reason).Inc()
	}
	return err
}
