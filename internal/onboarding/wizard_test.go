package onboarding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRegistrar struct {
	profiles []Profile
	err      error
}

func (r *fakeRegistrar) Register(_ context.Context, p Profile) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	r.profiles = append(r.profiles, p)
	return "user-1", nil
}

type recordingNavigator struct {
	destinations []Destination
}

func (n *recordingNavigator) Navigate(_ context.Context, d Destination) {
	n.destinations = append(n.destinations, d)
}

type countingCodes struct {
	StaticCodes
	issued int
}

func (c *countingCodes) Issue(ctx context.Context, phone string) error {
	c.issued++
	return c.StaticCodes.Issue(ctx, phone)
}

type stubPicker struct {
	locator string
	ok      bool
	err     error
}

func (p stubPicker) Pick(context.Context) (string, bool, error) { return p.locator, p.ok, p.err }

func newTestWizard(t *testing.T, opts Options) *Wizard {
	t.Helper()
	if opts.Now == nil {
		opts.Now = func() time.Time { return testNow }
	}
	if opts.TickInterval == 0 {
		opts.TickInterval = time.Hour
	}
	w := New(opts)
	t.Cleanup(w.Close)
	return w
}

func typeDigits(t *testing.T, w *Wizard, code string) {
	t.Helper()
	for i, r := range code {
		_, err := w.EditCode(i, string(r))
		require.NoError(t, err)
	}
}

func typePin(t *testing.T, w *Wizard, pin string, confirm bool) {
	t.Helper()
	for i, r := range pin {
		_, err := w.EditPin(i, string(r), confirm)
		require.NoError(t, err)
	}
}

func toVerification(t *testing.T, w *Wizard) {
	t.Helper()
	_, err := w.EditPhone("9171234567")
	require.NoError(t, err)
	require.NoError(t, w.SetTermsAgreed(true))
	require.NoError(t, w.SubmitRegistration(context.Background()))
	require.Equal(t, StepVerification, w.Step())
}

func toDetails(t *testing.T, w *Wizard) {
	t.Helper()
	toVerification(t, w)
	typeDigits(t, w, "123456")
	require.NoError(t, w.Verify(context.Background()))
	require.Equal(t, StepDetails, w.Step())
}

func toAddress(t *testing.T, w *Wizard) {
	t.Helper()
	toDetails(t, w)
	_, err := w.UpdateDetails(func(d *Details) {
		d.FirstName = "Maria"
		d.LastName = "Santos"
		d.Birthdate = "05141992"
		d.Agreed = true
	})
	require.NoError(t, err)
	require.NoError(t, w.SubmitDetails())
	require.Equal(t, StepAddress, w.Step())
}

func toPin(t *testing.T, w *Wizard) {
	t.Helper()
	toAddress(t, w)
	_, err := w.UpdateAddress(func(a *Address) {
		*a = Address{Country: "Philippines", Province: "Cebu City", Municipality: "Cebu City", Barangay: "Pasil", Street: "12 Rizal St", Agreed: true}
	})
	require.NoError(t, err)
	require.NoError(t, w.SubmitAddress())
	require.Equal(t, StepPin, w.Step())
}

func TestWizardHappyPath(t *testing.T) {
	registrar := &fakeRegistrar{}
	nav := &recordingNavigator{}
	w := newTestWizard(t, Options{Registrar: registrar, Navigator: nav})

	assert.Equal(t, StepRegistration, w.Step())
	assert.Equal(t, PhonePrefix, w.State().Registration.Phone)

	toPin(t, w)
	typePin(t, w, "1234", false)
	typePin(t, w, "1234", true)

	userID, err := w.SubmitPin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
	assert.Equal(t, []Destination{DestinationDashboard}, nav.destinations)

	require.Len(t, registrar.profiles, 1)
	p := registrar.profiles[0]
	assert.Equal(t, "+639171234567", p.Phone)
	assert.Equal(t, "1234", p.PIN)
	assert.Equal(t, "05/14/1992", p.Details.Birthdate)
	assert.Equal(t, "Pasil", p.Address.Barangay)

	state := w.State()
	assert.Equal(t, DestinationDashboard, state.Destination)
	assert.Equal(t, "user-1", state.UserID)

	_, err = w.EditPhone("1")
	assert.ErrorIs(t, err, ErrCompleted)
	_, _, err = w.Back(context.Background())
	assert.ErrorIs(t, err, ErrCompleted)
}

func TestWizardRegistrationFailuresKeepStep(t *testing.T) {
	w := newTestWizard(t, Options{})
	ctx := context.Background()

	_, err := w.EditPhone("917123")
	require.NoError(t, err)
	require.NoError(t, w.SetTermsAgreed(true))
	assert.ErrorIs(t, w.SubmitRegistration(ctx), ErrInvalidPhone)
	assert.Equal(t, StepRegistration, w.Step())

	_, _ = w.EditPhone("+639171234567")
	require.NoError(t, w.SetTermsAgreed(false))
	assert.ErrorIs(t, w.SubmitRegistration(ctx), ErrTermsNotAccepted)
	assert.Equal(t, StepRegistration, w.Step())
}

func TestWizardWrongCodeKeepsDigits(t *testing.T) {
	w := newTestWizard(t, Options{})
	ctx := context.Background()
	toVerification(t, w)

	typeDigits(t, w, "12345")
	assert.ErrorIs(t, w.Verify(ctx), ErrCodeIncomplete)

	typeDigits(t, w, "654321")
	assert.ErrorIs(t, w.Verify(ctx), ErrInvalidCode)
	assert.Equal(t, StepVerification, w.Step())
	assert.Equal(t, []string{"6", "5", "4", "3", "2", "1"}, w.State().Code)

	// retry is unlimited
	typeDigits(t, w, "123456")
	require.NoError(t, w.Verify(ctx))
	assert.Equal(t, StepDetails, w.Step())
}

func TestWizardResendGatedByCountdown(t *testing.T) {
	codes := &countingCodes{StaticCodes: StaticCodes{Code: "123456"}}
	w := newTestWizard(t, Options{Codes: codes, ResendCountdown: 2, TickInterval: time.Millisecond})
	ctx := context.Background()

	toVerification(t, w)
	assert.Equal(t, 1, codes.issued)

	typeDigits(t, w, "111")
	require.Eventually(t, func() bool { return w.State().ResendEnabled }, time.Second, time.Millisecond)

	require.NoError(t, w.Resend(ctx))
	assert.Equal(t, 2, codes.issued)

	state := w.State()
	assert.Equal(t, []string{"", "", "", "", "", ""}, state.Code)
	assert.Equal(t, 0, state.CodeFocus)
	assert.True(t, w.countdownActive() || state.ResendEnabled, "countdown restarted")
}

func TestWizardResendRestartsFullCountdown(t *testing.T) {
	w := newTestWizard(t, Options{ResendCountdown: 300, TickInterval: time.Microsecond})
	toVerification(t, w)
	require.Eventually(t, func() bool { return w.State().ResendEnabled }, 5*time.Second, time.Millisecond)

	// Slow the expired timer down so the restarted value can be observed.
	w.mu.Lock()
	w.countdown.mu.Lock()
	w.countdown.interval = time.Hour
	w.countdown.mu.Unlock()
	w.mu.Unlock()

	require.NoError(t, w.Resend(context.Background()))
	state := w.State()
	assert.Equal(t, 300, state.ResendIn)
	assert.False(t, state.ResendEnabled)
	assert.True(t, w.countdownActive())
	assert.ErrorIs(t, w.Resend(context.Background()), ErrResendUnavailable)
}

func TestWizardResendRejectedWhileCounting(t *testing.T) {
	w := newTestWizard(t, Options{ResendCountdown: 300})
	toVerification(t, w)

	state := w.State()
	assert.Equal(t, 300, state.ResendIn)
	assert.False(t, state.ResendEnabled)

	typeDigits(t, w, "99")
	assert.ErrorIs(t, w.Resend(context.Background()), ErrResendUnavailable)
	assert.Equal(t, "99", w.code.Value(), "failed resend leaves digits alone")
}

func TestWizardCountdownCancelledWhenLeavingVerification(t *testing.T) {
	w := newTestWizard(t, Options{})
	toVerification(t, w)
	require.True(t, w.countdownActive())

	_, _, err := w.Back(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StepRegistration, w.Step())
	assert.False(t, w.countdownActive())

	require.NoError(t, w.SubmitRegistration(context.Background()))
	require.True(t, w.countdownActive())
	typeDigits(t, w, "123456")
	require.NoError(t, w.Verify(context.Background()))
	assert.False(t, w.countdownActive())
	assert.Equal(t, 0, w.State().ResendIn)
}

func TestWizardCloseCancelsCountdown(t *testing.T) {
	w := newTestWizard(t, Options{})
	toVerification(t, w)
	w.Close()
	assert.False(t, w.countdownActive())
}

func TestWizardClosedRejectsActions(t *testing.T) {
	w := newTestWizard(t, Options{})
	_, err := w.EditPhone("9171234567")
	require.NoError(t, err)
	require.NoError(t, w.SetTermsAgreed(true))

	w.Close()
	assert.ErrorIs(t, w.SubmitRegistration(context.Background()), ErrSessionNotFound)
	assert.Equal(t, StepRegistration, w.Step())
	assert.False(t, w.countdownActive())

	assert.ErrorIs(t, w.Advance(StepVerification), ErrSessionNotFound)
	_, _, err = w.Back(context.Background())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.False(t, w.countdownActive())
	assert.Equal(t, "+639171234567", w.State().Registration.Phone)
}

func TestWizardDetailsValidation(t *testing.T) {
	w := newTestWizard(t, Options{})
	toDetails(t, w)

	_, err := w.UpdateDetails(func(d *Details) {
		d.FirstName = "Maria"
		d.LastName = "Santos"
	})
	require.NoError(t, err)
	assert.ErrorIs(t, w.SubmitDetails(), ErrDetailsRequired)

	d, err := w.UpdateDetails(func(d *Details) { d.Birthdate = "02302024" })
	require.NoError(t, err)
	assert.Equal(t, "02/30/2024", d.Birthdate)
	assert.ErrorIs(t, w.SubmitDetails(), ErrInvalidBirthdate)

	_, _ = w.UpdateDetails(func(d *Details) { d.Birthdate = "02292024" })
	assert.ErrorIs(t, w.SubmitDetails(), ErrDetailsNotConfirmed)

	_, _ = w.UpdateDetails(func(d *Details) { d.Agreed = true })
	require.NoError(t, w.SubmitDetails())
	assert.Equal(t, StepAddress, w.Step())
}

func TestWizardAddressValidation(t *testing.T) {
	w := newTestWizard(t, Options{})
	toAddress(t, w)

	assert.ErrorIs(t, w.SubmitAddress(), ErrAddressRequired)
	_, _ = w.UpdateAddress(func(a *Address) {
		*a = Address{Country: "Philippines", Province: "Cebu City", Municipality: "Cebu City", Barangay: "Duljo", Street: "Unit 4"}
	})
	assert.ErrorIs(t, w.SubmitAddress(), ErrAddressNotConfirmed)
	assert.Equal(t, StepAddress, w.Step())
}

func TestWizardPinMismatch(t *testing.T) {
	registrar := &fakeRegistrar{}
	w := newTestWizard(t, Options{Registrar: registrar})
	toPin(t, w)

	typePin(t, w, "1234", false)
	_, err := w.SubmitPin(context.Background())
	assert.ErrorIs(t, err, ErrPinIncomplete)

	typePin(t, w, "1243", true)
	_, err = w.SubmitPin(context.Background())
	assert.ErrorIs(t, err, ErrPinMismatch)
	assert.Equal(t, StepPin, w.Step())
	assert.Empty(t, registrar.profiles)

	state := w.State()
	assert.Equal(t, []bool{true, true, true, true}, state.ConfirmFilled)
}

func TestWizardRegistrarFailureStaysOnPin(t *testing.T) {
	registrar := &fakeRegistrar{err: ErrPhoneTaken}
	nav := &recordingNavigator{}
	w := newTestWizard(t, Options{Registrar: registrar, Navigator: nav})
	toPin(t, w)
	typePin(t, w, "1234", false)
	typePin(t, w, "1234", true)

	_, err := w.SubmitPin(context.Background())
	assert.ErrorIs(t, err, ErrPhoneTaken)
	assert.Equal(t, StepPin, w.Step())
	assert.Empty(t, nav.destinations)
	assert.Empty(t, w.State().Destination)
}

func TestWizardBackWalksExactPredecessors(t *testing.T) {
	nav := &recordingNavigator{}
	w := newTestWizard(t, Options{Navigator: nav})
	toPin(t, w)
	ctx := context.Background()

	for _, want := range []Step{StepAddress, StepDetails, StepVerification, StepRegistration} {
		step, dest, err := w.Back(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, step)
		assert.Empty(t, dest)
	}

	_, dest, err := w.Back(ctx)
	require.NoError(t, err)
	assert.Equal(t, DestinationWelcome, dest)
	assert.Equal(t, []Destination{DestinationWelcome}, nav.destinations)

	_, err = w.EditPhone("9")
	assert.ErrorIs(t, err, ErrAbandoned)
}

func TestWizardAdvanceRetreatUseTable(t *testing.T) {
	w := newTestWizard(t, Options{})

	assert.ErrorIs(t, w.Advance(StepPin), ErrIllegalTransition)
	assert.ErrorIs(t, w.Advance(StepDetails), ErrIllegalTransition)
	assert.ErrorIs(t, w.Retreat(StepPin), ErrIllegalTransition)
	assert.Equal(t, StepRegistration, w.Step())

	require.NoError(t, w.Advance(StepVerification))
	assert.True(t, w.countdownActive())
	require.NoError(t, w.Advance(StepDetails))
	assert.False(t, w.countdownActive())

	assert.ErrorIs(t, w.Retreat(StepRegistration), ErrIllegalTransition)
	require.NoError(t, w.Retreat(StepVerification))
	assert.Equal(t, StepVerification, w.Step())
}

func TestWizardActionsBoundToStep(t *testing.T) {
	w := newTestWizard(t, Options{})
	ctx := context.Background()

	assert.ErrorIs(t, w.Verify(ctx), ErrStepMismatch)
	assert.ErrorIs(t, w.SubmitDetails(), ErrStepMismatch)
	_, err := w.EditPin(0, "1", false)
	assert.ErrorIs(t, err, ErrStepMismatch)
	_, err = w.SubmitPin(ctx)
	assert.ErrorIs(t, err, ErrStepMismatch)
}

func TestWizardProfileImage(t *testing.T) {
	w := newTestWizard(t, Options{})
	ctx := context.Background()

	ok, err := w.PickProfileImage(ctx, stubPicker{locator: "file:///photos/me.jpg", ok: true})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "file:///photos/me.jpg", w.State().ProfileImage)

	ok, err = w.PickProfileImage(ctx, stubPicker{})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "file:///photos/me.jpg", w.State().ProfileImage, "cancelled pick keeps the old image")

	boom := errors.New("permission denied")
	_, err = w.PickProfileImage(ctx, stubPicker{err: boom})
	assert.ErrorIs(t, err, boom)
}
