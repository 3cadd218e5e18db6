package identity_test

import (
	"context"
	"testing"
	"time"

	identity "github.com/goliatone/go-identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAutherLogin(t *testing.T) {
	ctx := context.Background()
	provider := new(MockIdentityProvider)
	sink := &capturingSink{}

	ident := TestIdentity{
		id:        "c6f7a40e-29ea-4e3f-a9b2-0a82c0c7b2ce",
		username:  "alice",
		email:     "alice@example.com",
		superuser: false,
	}

	provider.On("VerifyIdentity", ctx, "alice@example.com", "secret123").
		Return(ident, nil).Once()

	auther := identity.NewAuthenticator(provider, newTestConfig()).
		WithActivitySink(sink)

	token, err := auther.Login(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// the minted token resolves back to the same identity
	session, err := auther.SessionFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, ident.id, session.GetUserID())
	assert.Equal(t, "alice", session.GetSubject())

	issued := sink.ofType(identity.ActivityEventTokenIssued)
	require.Len(t, issued, 1)
	assert.Equal(t, ident.id, issued[0].UserID)

	provider.AssertExpectations(t)
}

func TestAutherLoginInvalidCredentials(t *testing.T) {
	ctx := context.Background()
	provider := new(MockIdentityProvider)

	provider.On("VerifyIdentity", ctx, mock.Anything, mock.Anything).
		Return(nil, identity.ErrInvalidCredentials)

	auther := identity.NewAuthenticator(provider, newTestConfig())

	_, err := auther.Login(ctx, "alice@example.com", "wrong")
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
}

func TestAutherLoginNilIdentity(t *testing.T) {
	ctx := context.Background()
	provider := new(MockIdentityProvider)

	provider.On("VerifyIdentity", ctx, mock.Anything, mock.Anything).
		Return(nil, nil)

	auther := identity.NewAuthenticator(provider, newTestConfig())

	_, err := auther.Login(ctx, "alice@example.com", "secret123")
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
}

func TestAutherSessionFromTokenRejectsExpired(t *testing.T) {
	provider := new(MockIdentityProvider)
	cfg := newTestConfig()

	now := time.Now()
	ts := identity.NewTokenService([]byte(cfg.SigningKey), 30, cfg.Issuer, nil, nil).
		WithClock(func() time.Time { return now })

	auther := identity.NewAuthenticator(provider, cfg).WithTokenService(ts)

	token, err := ts.Generate(TestIdentity{id: "id-1", username: "bob"})
	require.NoError(t, err)

	_, err = auther.SessionFromToken(token)
	require.NoError(t, err)

	ts.WithClock(func() time.Time { return now.Add(31 * time.Minute) })

	_, err = auther.SessionFromToken(token)
	assert.ErrorIs(t, err, identity.ErrTokenInvalid)
}

func TestAutherSessionFromTokenGarbage(t *testing.T) {
	auther := identity.NewAuthenticator(new(MockIdentityProvider), newTestConfig())

	_, err := auther.SessionFromToken("not-a-token")
	assert.ErrorIs(t, err, identity.ErrTokenInvalid)
}

func TestAutherIdentityFromSession(t *testing.T) {
	ctx := context.Background()
	provider := new(MockIdentityProvider)

	ident := TestIdentity{id: "user-1", username: "alice"}
	provider.On("FindIdentityByIdentifier", ctx, "user-1").Return(ident, nil)

	auther := identity.NewAuthenticator(provider, newTestConfig())

	session := &identity.SessionObject{UserID: "user-1", Subject: "alice"}

	got, err := auther.IdentityFromSession(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.ID())
}

func TestAutherIdentityFromSessionNilSession(t *testing.T) {
	auther := identity.NewAuthenticator(new(MockIdentityProvider), newTestConfig())

	_, err := auther.IdentityFromSession(context.Background(), nil)
	assert.ErrorIs(t, err, identity.ErrUnableToFindSession)
}
