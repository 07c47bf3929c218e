package auth

import (
	"context"
	"errors"

	"github.com/rfosterdev/chorebank/internal/model"
)

// ErrForbidden means the caller's role or household scope does not permit
// the operation. A terminal business outcome, never retried.
var ErrForbidden = errors.New("forbidden")

type contextKey struct{}

// Identity is the verified caller attached to each request: the core trusts
// these fields and re-validates household scoping on every operation that
// targets another participant's records.
type Identity struct {
	ParticipantID int64
	HouseholdID   int64
	Role          string
	Name          string
}

func (id Identity) IsGuardian() bool {
	return id.Role == model.RoleGuardian
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}
