package onboarding

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/lora-lending/lora/internal/logging"
)

// Handler exposes the onboarding wizard over HTTP, one wizard per session.
type Handler struct {
	sessions *Registry
	logger   *slog.Logger
}

// NewHandler constructs an onboarding HTTP handler.
func NewHandler(sessions *Registry, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Handler{sessions: sessions, logger: logger}
}

type stateResponse struct {
	SessionID string `json:"session_id"`
	Focus     *int   `json:"focus,omitempty"`
	State     State  `json:"state"`
}

type registrationRequest struct {
	Phone  *string `json:"phone"`
	Agreed *bool   `json:"agreed"`
}

type digitRequest struct {
	Value string `json:"value"`
}

type detailsRequest struct {
	FirstName   *string `json:"first_name"`
	MiddleName  *string `json:"middle_name"`
	LastName    *string `json:"last_name"`
	Suffix      *string `json:"suffix"`
	Birthdate   *string `json:"birthdate"`
	Gender      *string `json:"gender"`
	Nationality *string `json:"nationality"`
	Agreed      *bool   `json:"agreed"`
}

type addressRequest struct {
	Country      *string `json:"country"`
	Province     *string `json:"province"`
	Municipality *string `json:"municipality"`
	Barangay     *string `json:"barangay"`
	Street       *string `json:"street"`
	Agreed       *bool   `json:"agreed"`
}

type profileImageRequest struct {
	Locator string `json:"locator"`
}

// Start opens a new onboarding session on the registration step.
func (h *Handler) Start(c *fiber.Ctx) error {
	id, w := h.sessions.Start()
	return c.Status(http.StatusCreated).JSON(stateResponse{SessionID: id, State: w.State()})
}

// State returns the current wizard snapshot.
func (h *Handler) State(c *fiber.Ctx) error {
	return h.run(c, func(w *Wizard) error { return nil })
}

// Discard abandons the session.
func (h *Handler) Discard(c *fiber.Ctx) error {
	if err := h.sessions.Discard(c.Params("sessionId")); err != nil {
		return httpError(err)
	}
	return c.SendStatus(http.StatusNoContent)
}

// Choices returns the selector values for the details and address steps.
func (h *Handler) Choices(c *fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(DefaultChoices())
}

// UpdateRegistration edits the phone number and terms flag.
func (h *Handler) UpdateRegistration(c *fiber.Ctx) error {
	var req registrationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return h.run(c, func(w *Wizard) error {
		if req.Phone != nil {
			if _, err := w.EditPhone(*req.Phone); err != nil {
				return err
			}
		}
		if req.Agreed != nil {
			return w.SetTermsAgreed(*req.Agreed)
		}
		return nil
	})
}

// SubmitRegistration validates the phone step and sends the MPIN.
func (h *Handler) SubmitRegistration(c *fiber.Ctx) error {
	return h.run(c, func(w *Wizard) error { return w.SubmitRegistration(c.UserContext()) })
}

// EditCode writes one MPIN digit.
func (h *Handler) EditCode(c *fiber.Ctx) error {
	var req digitRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return h.runDigit(c, func(w *Wizard, index int) (int, error) { return w.EditCode(index, req.Value) })
}

// BackspaceCode erases one MPIN digit.
func (h *Handler) BackspaceCode(c *fiber.Ctx) error {
	return h.runDigit(c, func(w *Wizard, index int) (int, error) { return w.BackspaceCode(index) })
}

// Verify checks the entered MPIN.
func (h *Handler) Verify(c *fiber.Ctx) error {
	return h.run(c, func(w *Wizard) error { return w.Verify(c.UserContext()) })
}

// Resend issues a fresh MPIN once the countdown allows it.
func (h *Handler) Resend(c *fiber.Ctx) error {
	return h.run(c, func(w *Wizard) error { return w.Resend(c.UserContext()) })
}

// UpdateDetails patches the personal details record.
func (h *Handler) UpdateDetails(c *fiber.Ctx) error {
	var req detailsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return h.run(c, func(w *Wizard) error {
		_, err := w.UpdateDetails(func(d *Details) {
			patch(&d.FirstName, req.FirstName)
			patch(&d.MiddleName, req.MiddleName)
			patch(&d.LastName, req.LastName)
			patch(&d.Suffix, req.Suffix)
			patch(&d.Birthdate, req.Birthdate)
			patch(&d.Gender, req.Gender)
			patch(&d.Nationality, req.Nationality)
			patch(&d.Agreed, req.Agreed)
		})
		return err
	})
}

// SubmitDetails validates the details step.
func (h *Handler) SubmitDetails(c *fiber.Ctx) error {
	return h.run(c, func(w *Wizard) error { return w.SubmitDetails() })
}

// UpdateAddress patches the address record.
func (h *Handler) UpdateAddress(c *fiber.Ctx) error {
	var req addressRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return h.run(c, func(w *Wizard) error {
		_, err := w.UpdateAddress(func(a *Address) {
			patch(&a.Country, req.Country)
			patch(&a.Province, req.Province)
			patch(&a.Municipality, req.Municipality)
			patch(&a.Barangay, req.Barangay)
			patch(&a.Street, req.Street)
			patch(&a.Agreed, req.Agreed)
		})
		return err
	})
}

// SubmitAddress validates the address step.
func (h *Handler) SubmitAddress(c *fiber.Ctx) error {
	return h.run(c, func(w *Wizard) error { return w.SubmitAddress() })
}

// EditPin writes one digit of the PIN or of its confirmation.
func (h *Handler) EditPin(c *fiber.Ctx) error {
	var req digitRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	confirm, err := pinFieldParam(c)
	if err != nil {
		return err
	}
	return h.runDigit(c, func(w *Wizard, index int) (int, error) { return w.EditPin(index, req.Value, confirm) })
}

// BackspacePin erases one digit of the PIN or of its confirmation.
func (h *Handler) BackspacePin(c *fiber.Ctx) error {
	confirm, err := pinFieldParam(c)
	if err != nil {
		return err
	}
	return h.runDigit(c, func(w *Wizard, index int) (int, error) { return w.BackspacePin(index, confirm) })
}

// SubmitPin completes onboarding and creates the account.
func (h *Handler) SubmitPin(c *fiber.Ctx) error {
	return h.run(c, func(w *Wizard) error {
		userID, err := w.SubmitPin(c.UserContext())
		if err == nil {
			h.logger.Info("onboarding completed", slog.String("session_id", c.Params("sessionId")), slog.String("user_id", userID))
		}
		return err
	})
}

// Back returns to the previous step or exits to the welcome screen.
func (h *Handler) Back(c *fiber.Ctx) error {
	return h.run(c, func(w *Wizard) error {
		_, _, err := w.Back(c.UserContext())
		return err
	})
}

// SetProfileImage stores the locator returned by the client's media picker.
// An empty locator is treated as a cancelled pick.
func (h *Handler) SetProfileImage(c *fiber.Ctx) error {
	var req profileImageRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return h.run(c, func(w *Wizard) error {
		_, err := w.PickProfileImage(c.UserContext(), locatorPicker(req.Locator))
		return err
	})
}

func (h *Handler) run(c *fiber.Ctx, action func(*Wizard) error) error {
	id := c.Params("sessionId")
	w, err := h.sessions.Get(id)
	if err != nil {
		return httpError(err)
	}
	if err := action(w); err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(stateResponse{SessionID: id, State: w.State()})
}

func (h *Handler) runDigit(c *fiber.Ctx, action func(*Wizard, int) (int, error)) error {
	index, err := c.ParamsInt("index")
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "digit index must be a number")
	}
	id := c.Params("sessionId")
	w, err := h.sessions.Get(id)
	if err != nil {
		return httpError(err)
	}
	focus, err := action(w, index)
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(stateResponse{SessionID: id, Focus: &focus, State: w.State()})
}

func pinFieldParam(c *fiber.Ctx) (bool, error) {
	switch c.Params("field") {
	case "pin":
		return false, nil
	case "confirm":
		return true, nil
	default:
		return false, fiber.NewError(http.StatusBadRequest, "field must be pin or confirm")
	}
}

func httpError(err error) error {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return fiber.NewError(http.StatusUnprocessableEntity, ve.Message)
	case errors.Is(err, ErrSessionNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrIllegalTransition),
		errors.Is(err, ErrStepMismatch),
		errors.Is(err, ErrCompleted),
		errors.Is(err, ErrAbandoned):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrSlotOutOfRange):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}

func patch[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

type locatorPicker string

func (p locatorPicker) Pick(context.Context) (string, bool, error) {
	return string(p), p != "", nil
}
