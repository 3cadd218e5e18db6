package identity

import (
	"context"

	"github.com/goliatone/go-errors"
)

// AccountRegistrerer is the interface we need to handle new user registrations
type AccountRegistrerer interface {
	Register(ctx context.Context, msg RegisterMessage) (*User, error)
}

// IdentityStore is the lookup surface the provider needs
type IdentityStore interface {
	Authenticate(ctx context.Context, identifier, password string) (*User, error)
	GetByIdentifier(ctx context.Context, identifier string) (*User, error)
}

// UserProvider adapts the IdentityService to the IdentityProvider contract
// used by the Auther.
type UserProvider struct {
	store  IdentityStore
	logger Logger
}

// NewUserProvider will create a new UserProvider
func NewUserProvider(store IdentityStore) *UserProvider {
	return &UserProvider{
		store:  store,
		logger: defLogger{},
	}
}

func (u *UserProvider) WithLogger(logger Logger) *UserProvider {
	if logger != nil {
		u.logger = logger
	}
	return u
}

// VerifyIdentity will find the user, compare the password, and return the
// identity. Every failure keeps the unified credential error shape.
func (u UserProvider) VerifyIdentity(ctx context.Context, identifier, password string) (Identity, error) {
	user, err := u.store.Authenticate(ctx, identifier, password)
	if err != nil {
		if IsAuthFailure(err) {
			return nil, err
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to verify identity")
	}

	if user == nil {
		return nil, ErrInvalidCredentials
	}

	return user.Identity(), nil
}

// FindIdentityByIdentifier resolves an identity without checking
// credentials. Inactive identities are not resolvable: a token minted
// before deactivation must not keep working.
func (u UserProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (Identity, error) {
	user, err := u.store.GetByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}

	if user == nil {
		return nil, ErrIdentityNotFound
	}

	if !user.IsActive {
		u.logger.Debug("refusing to resolve inactive identity", "id", user.ID.String())
		return nil, ErrInvalidCredentials
	}

	return user.Identity(), nil
}

var _ IdentityProvider = (*UserProvider)(nil)
