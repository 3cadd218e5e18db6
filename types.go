package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Identity holds the attributes of an authenticated identity
type Identity interface {
	ID() string
	Username() string
	Email() string
	IsSuperuser() bool
}

// Session holds attributes that are part of an auth session
type Session interface {
	GetUserID() string
	GetUserUUID() (uuid.UUID, error)
	GetSubject() string
	GetAudience() []string
	GetIssuer() string
	GetIssuedAt() *time.Time
	GetData() map[string]any
}

// Authenticator holds methods to deal with authentication
type Authenticator interface {
	Login(ctx context.Context, identifier, password string) (string, error)
	SessionFromToken(token string) (Session, error)
	IdentityFromSession(ctx context.Context, session Session) (Identity, error)
}

// LoginPayload is the credential presentation for a login attempt. It is
// ephemeral: implementations must not be persisted or logged.
type LoginPayload interface {
	GetIdentifier() string
	GetPassword() string
}

// Config holds service options, read once at process start
type Config interface {
	GetSigningKey() string
	GetSigningMethod() string
	GetContextKey() string
	GetTokenExpiration() int
	GetIssuer() string
	GetAudience() []string
	GetTokenLookup() string
	GetAuthScheme() string
	GetMaxPageSize() int
}

// IdentityProvider ensure we have a store to retrieve auth identity
type IdentityProvider interface {
	VerifyIdentity(ctx context.Context, identifier, password string) (Identity, error)
	FindIdentityByIdentifier(ctx context.Context, identifier string) (Identity, error)
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	d.print("ERR", format, args...)
}

func (d defLogger) Warn(format string, args ...any) {
	d.print("WRN", format, args...)
}

func (d defLogger) Info(format string, args ...any) {
	d.print("INF", format, args...)
}

func (d defLogger) Debug(format string, args ...any) {
	d.print("DBG", format, args...)
}

func (d defLogger) print(level, format string, args ...any) {
	fmt.Print(formatLogLine(level, format, args...))
}

// formatLogLine accepts both printf-style messages and key/value pairs, so
// call sites can log either way without producing EXTRA noise.
func formatLogLine(level, format string, args ...any) string {
	if strings.ContainsRune(format, '%') {
		return fmt.Sprintf("["+level+"] IDENTITY "+newline(format), args...)
	}

	var sb strings.Builder
	sb.WriteString("[" + level + "] IDENTITY " + format)

	i := 0
	for ; i+1 < len(args); i += 2 {
		fmt.Fprintf(&sb, " %v=%v", args[i], args[i+1])
	}
	if i < len(args) {
		fmt.Fprintf(&sb, " %v", args[i])
	}

	sb.WriteString("\n")
	return sb.String()
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
