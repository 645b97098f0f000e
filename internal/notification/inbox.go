package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const defaultInboxLimit = 50

// inboxTitles lists the kinds that land in a user's inbox. Anything else,
// verification codes in particular, is only forwarded.
var inboxTitles = map[string]string{
	KindLoanDisbursed:     "Loan Approved",
	KindRepaymentReceived: "Payment Received",
	KindWalletTopUp:       "Wallet Topped Up",
}

// Inbox is a Notifier that files user-facing messages into a Store before
// handing them to the next notifier, and serves the inbox back to the user.
type Inbox struct {
	store Store
	next  Notifier
	now   func() time.Time
}

// NewInbox wraps next with a per-user inbox. next may be nil.
func NewInbox(store Store, next Notifier) *Inbox {
	return &Inbox{store: store, next: next, now: time.Now}
}

// Send stores inbox kinds under message.Destination, the recipient's user
// id, then forwards the message.
func (i *Inbox) Send(ctx context.Context, message Message) error {
	if title, ok := inboxTitles[message.Kind]; ok && message.Destination != "" {
		if message.Title != "" {
			title = message.Title
		}
		err := i.store.Add(ctx, Item{
			ID:        uuid.NewString(),
			UserID:    message.Destination,
			Kind:      message.Kind,
			Title:     title,
			Body:      message.Body,
			CreatedAt: i.now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("store notification: %w", err)
		}
	}
	if i.next == nil {
		return nil
	}
	return i.next.Send(ctx, message)
}

// List returns the newest notifications of userID.
func (i *Inbox) List(ctx context.Context, userID string, limit int) ([]Item, error) {
	if limit <= 0 || limit > defaultInboxLimit {
		limit = defaultInboxLimit
	}
	return i.store.List(ctx, userID, limit)
}

// MarkRead flags one notification as read. Reading twice is harmless.
func (i *Inbox) MarkRead(ctx context.Context, userID, id string) error {
	return i.store.MarkRead(ctx, userID, id, i.now())
}

// MarkAllRead flags every unread notification of userID and reports how many changed.
func (i *Inbox) MarkAllRead(ctx context.Context, userID string) (int, error) {
	return i.store.MarkAllRead(ctx, userID, i.now())
}

// HasUnread drives the unread dot on the dashboard bell.
func (i *Inbox) HasUnread(ctx context.Context, userID string) (bool, error) {
	n, err := i.store.CountUnread(ctx, userID)
	return n > 0, err
}
