package notification

import (
	"context"
	"log/slog"
	"sync"
)

const (
	// KindVerificationCode carries an onboarding MPIN to a phone number.
	KindVerificationCode = "verification_code"
	// KindLoanDisbursed tells a borrower the loan reached their wallet.
	KindLoanDisbursed = "loan_disbursed"
	// KindRepaymentReceived confirms an installment payment.
	KindRepaymentReceived = "repayment_received"
	// KindWalletTopUp confirms a card top-up into the wallet.
	KindWalletTopUp = "wallet_top_up"
)

// Message describes a notification payload.
// Destination is a phone number for verification codes and a user id for
// everything else.
type Message struct {
	Kind        string
	Destination string
	Title       string
	Body        string
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier is a stub implementation that writes notifications to the logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier stub.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger. Verification codes are
// never logged in clear.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	body := message.Body
	if message.Kind == KindVerificationCode {
		body = "[redacted]"
	}
	n.logger.Info("notification", "kind", message.Kind, "destination", message.Destination, "body", body)
	return nil
}

// Recorder keeps every message in memory. Useful for tests.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

// Send records the message.
func (r *Recorder) Send(_ context.Context, message Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
	return nil
}

// Messages returns a copy of the recorded messages.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Last returns the most recent message, if any.
func (r *Recorder) Last() (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return Message{}, false
	}
	return r.messages[len(r.messages)-1], true
}
