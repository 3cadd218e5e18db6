package identity

import (
	"context"
	"reflect"
	"time"

	"github.com/goliatone/go-errors"
)

// Auther resolves identities and mints bearer tokens for them. Token
// issuance is the only state it adds on top of the IdentityProvider; the
// provider owns credential verification and its audit trail.
type Auther struct {
	provider     IdentityProvider
	signingKey   []byte
	tokenTTL     int
	issuer       string
	audience     []string
	logger       Logger
	tokenService TokenService
	activitySink ActivitySink
}

// NewAuthenticator returns a new Auther
func NewAuthenticator(provider IdentityProvider, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenExpiration(),
		opts.GetIssuer(),
		opts.GetAudience(),
		defLogger{},
	)

	return &Auther{
		provider:     provider,
		signingKey:   []byte(opts.GetSigningKey()),
		tokenTTL:     opts.GetTokenExpiration(),
		audience:     opts.GetAudience(),
		issuer:       opts.GetIssuer(),
		logger:       defLogger{},
		tokenService: tokenService,
		activitySink: noopActivitySink{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger == nil {
		return s
	}
	s.logger = logger
	s.tokenService = NewTokenService(
		s.signingKey,
		s.tokenTTL,
		s.issuer,
		s.audience,
		logger,
	)
	return s
}

// WithActivitySink configures an ActivitySink for emitting token events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// WithTokenService overrides the token service, mostly for tests that need
// a fixed clock.
func (s *Auther) WithTokenService(ts TokenService) *Auther {
	if ts != nil {
		s.tokenService = ts
	}
	return s
}

// TokenService returns the TokenService instance used by this Auther
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login verifies the credential presentation and returns a signed bearer
// token for the resolved identity.
func (s *Auther) Login(ctx context.Context, identifier, password string) (string, error) {
	identity, err := s.provider.VerifyIdentity(ctx, identifier, password)
	if err != nil {
		s.logger.Error("Login verify identity error", "error", err)
		return "", err
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		s.logger.Error("Login identity is nil or zero value")
		return "", ErrInvalidCredentials
	}

	token, err := s.tokenService.Generate(identity)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to generate token")
	}

	s.emitTokenIssued(ctx, identity)

	return token, nil
}

// SessionFromToken validates a presented token and decodes it into a session
func (s *Auther) SessionFromToken(token string) (Session, error) {
	claims, err := s.tokenService.Validate(token)
	if err != nil {
		return nil, err
	}

	return sessionFromAuthClaims(claims)
}

// IdentityFromSession resolves the current identity record behind a session
func (s *Auther) IdentityFromSession(ctx context.Context, session Session) (Identity, error) {
	if session == nil {
		return nil, ErrUnableToFindSession
	}
	return s.provider.FindIdentityByIdentifier(ctx, session.GetUserID())
}

func (s *Auther) emitTokenIssued(ctx context.Context, identity Identity) {
	event := ActivityEvent{
		EventType:  ActivityEventTokenIssued,
		Actor:      ActorRef{ID: identity.ID(), Type: "user"},
		UserID:     identity.ID(),
		Metadata:   map[string]any{"subject": identity.Username()},
		OccurredAt: time.Now(),
	}

	if err := s.activitySink.Record(ctx, event); err != nil {
		s.logger.Error("failed to record token event", "error", err)
	}
}

var _ Authenticator = (*Auther)(nil)
