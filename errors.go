package identity

import (
	"github.com/goliatone/go-errors"
)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithTextCode("IDENTITY_NOT_FOUND")

// ErrInvalidCredentials is the single outward failure for authentication
// attempts. Unknown identifiers, wrong passwords, and inactive accounts all
// map here so callers cannot test for account existence.
var ErrInvalidCredentials = errors.New("invalid credentials", errors.CategoryAuth).
	WithTextCode("INVALID_CREDENTIALS")

// ErrTokenInvalid is returned for any token that fails validation, whether
// the signature, expiry, issuer, or audience check failed. The detail only
// goes to the logger.
var ErrTokenInvalid = errors.New("invalid or expired token", errors.CategoryAuth).
	WithTextCode("TOKEN_INVALID")

// ErrNotAuthorized is the policy denial for an authenticated caller
var ErrNotAuthorized = errors.New("not enough permissions", errors.CategoryAuthz).
	WithTextCode("NOT_AUTHORIZED")

// ErrEmailTaken signals a uniqueness conflict on the email column
var ErrEmailTaken = errors.New("email already registered", errors.CategoryConflict).
	WithTextCode("EMAIL_TAKEN")

// ErrUsernameTaken signals a uniqueness conflict on the username column
var ErrUsernameTaken = errors.New("username already taken", errors.CategoryConflict).
	WithTextCode("USERNAME_TAKEN")

// ErrNoEmptyString rejects empty passwords before they reach bcrypt
var ErrNoEmptyString = errors.New("password should not be empty", errors.CategoryValidation).
	WithTextCode("EMPTY_PASSWORD")

// ErrMismatchedHashAndPassword is the normal mismatch result of a compare
var ErrMismatchedHashAndPassword = errors.New("password does not match", errors.CategoryAuth).
	WithTextCode("PASSWORD_MISMATCH")

// ErrUnableToFindSession is the error when the request carries no session
var ErrUnableToFindSession = errors.New("unable to find session", errors.CategoryAuth).
	WithTextCode("SESSION_NOT_FOUND")

// ErrUnableToParseData signals claims that could not be decoded into a session
var ErrUnableToParseData = errors.New("unable to parse data", errors.CategoryAuth).
	WithTextCode("SESSION_PARSE_ERROR")

// ErrNothingToUpdate rejects empty partial patches
var ErrNothingToUpdate = errors.New("no fields to update", errors.CategoryValidation).
	WithTextCode("EMPTY_PATCH")

// IsConflict checks for uniqueness violations, pre checked or surfaced at
// commit time
func IsConflict(err error) bool {
	return hasCategory(err, errors.CategoryConflict)
}

// IsNotFound checks for missing target identities
func IsNotFound(err error) bool {
	return hasCategory(err, errors.CategoryNotFound)
}

// IsAuthFailure checks for authentication failures (credentials or tokens)
func IsAuthFailure(err error) bool {
	return hasCategory(err, errors.CategoryAuth)
}

// IsForbidden checks for policy denials
func IsForbidden(err error) bool {
	return hasCategory(err, errors.CategoryAuthz)
}

// IsValidationFailure checks for malformed input errors
func IsValidationFailure(err error) bool {
	return hasCategory(err, errors.CategoryValidation) || hasCategory(err, errors.CategoryBadInput)
}

func hasCategory(err error, category errors.Category) bool {
	if err == nil {
		return false
	}
	var rich *errors.Error
	if errors.As(err, &rich) {
		return rich.Category == category
	}
	return false
}
