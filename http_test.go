package identity_test

import (
	"context"
	"net/http"
	"testing"

	identity "github.com/goliatone/go-identity"
	"github.com/goliatone/go-identity/middleware/jwtware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPAuthenticator(t *testing.T) {
	mockAuth := new(MockAuthenticator)

	httpAuth, err := identity.NewHTTPAuthenticator(mockAuth, newTestConfig())

	require.NoError(t, err)
	assert.NotNil(t, httpAuth)
}

func TestRouteAuthenticatorLogin(t *testing.T) {
	mockAuth := new(MockAuthenticator)
	mockCtx := new(MockContext)

	mockAuth.On("Login", mock.Anything, "user@example.com", "password123").
		Return("valid.jwt.token", nil)

	mockCtx.On("Context").Return(context.Background())
	mockCtx.On("JSON", http.StatusOK, identity.TokenResponse{
		AccessToken: "valid.jwt.token",
		TokenType:   "bearer",
	}).Return(nil)

	httpAuth, err := identity.NewHTTPAuthenticator(mockAuth, newTestConfig())
	require.NoError(t, err)

	payload := MockLoginPayload{
		Identifier: "user@example.com",
		Password:   "password123",
	}

	err = httpAuth.Login(mockCtx, payload)
	require.NoError(t, err)

	mockAuth.AssertExpectations(t)
	mockCtx.AssertExpectations(t)
}

func TestRouteAuthenticatorLoginFailure(t *testing.T) {
	mockAuth := new(MockAuthenticator)
	mockCtx := new(MockContext)

	mockAuth.On("Login", mock.Anything, "user@example.com", "wrong").
		Return("", identity.ErrInvalidCredentials)

	mockCtx.On("Context").Return(context.Background())

	httpAuth, err := identity.NewHTTPAuthenticator(mockAuth, newTestConfig())
	require.NoError(t, err)

	payload := MockLoginPayload{
		Identifier: "user@example.com",
		Password:   "wrong",
	}

	err = httpAuth.Login(mockCtx, payload)
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)

	// no token payload is ever written on failure
	mockCtx.AssertNotCalled(t, "JSON", mock.Anything, mock.Anything)
}

func TestLoginRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		payload identity.LoginRequest
		wantErr bool
	}{
		{
			name:    "valid",
			payload: identity.LoginRequest{Identifier: "alice", Password: "secret123"},
			wantErr: false,
		},
		{
			name:    "missing identifier",
			payload: identity.LoginRequest{Password: "secret123"},
			wantErr: true,
		},
		{
			name:    "missing password",
			payload: identity.LoginRequest{Identifier: "alice"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.payload.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestMakeAuthErrorHandlerOptional(t *testing.T) {
	mockAuth := new(MockAuthenticator)

	httpAuth, err := identity.NewHTTPAuthenticator(mockAuth, newTestConfig())
	require.NoError(t, err)

	handler := httpAuth.MakeAuthErrorHandler(true)

	mockCtx := new(MockContext)
	err = handler(mockCtx, identity.ErrTokenInvalid)
	require.NoError(t, err)
	assert.True(t, mockCtx.NextCalled)
}

func TestMakeAuthErrorHandlerRejects(t *testing.T) {
	mockAuth := new(MockAuthenticator)

	httpAuth, err := identity.NewHTTPAuthenticator(mockAuth, newTestConfig())
	require.NoError(t, err)

	handler := httpAuth.MakeAuthErrorHandler(false)

	mockCtx := new(MockContext)
	mockCtx.On("JSON", http.StatusUnauthorized, mock.Anything).Return(nil)

	err = handler(mockCtx, identity.ErrTokenInvalid)
	require.NoError(t, err)
	assert.False(t, mockCtx.NextCalled)
	mockCtx.AssertExpectations(t)
}

func TestMakeAuthErrorHandlerSuperuserRequired(t *testing.T) {
	mockAuth := new(MockAuthenticator)

	httpAuth, err := identity.NewHTTPAuthenticator(mockAuth, newTestConfig())
	require.NoError(t, err)

	handler := httpAuth.MakeAuthErrorHandler(false)

	mockCtx := new(MockContext)
	mockCtx.On("JSON", http.StatusForbidden, mock.Anything).Return(nil)

	err = handler(mockCtx, jwtware.ErrSuperuserRequired)
	require.NoError(t, err)
	assert.False(t, mockCtx.NextCalled)
	mockCtx.AssertExpectations(t)
}
