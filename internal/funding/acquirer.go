package funding

import (
	"context"

	"github.com/google/uuid"
)

// Acquirer represents a connector to an external card processor.
type Acquirer interface {
	AuthorizeTopUp(ctx context.Context, input CardAuthorization) (AuthorizationDecision, error)
}

// AuthorizationDecision captures the response from the acquirer.
type AuthorizationDecision struct {
	Reference string
	Status    string
}

// CardAuthorization encapsulates details needed to charge a card.
type CardAuthorization struct {
	CardNumber string
	Expiry     string
	CVV        string
	Amount     int64
}

// StaticAcquirer approves every charge. Used in dev and tests.
type StaticAcquirer struct{}

// AuthorizeTopUp approves the charge with a synthetic reference.
func (StaticAcquirer) AuthorizeTopUp(_ context.Context, _ CardAuthorization) (AuthorizationDecision, error) {
	return AuthorizationDecision{Reference: uuid.NewString(), Status: "approved"}, nil
}
