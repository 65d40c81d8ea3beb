package auth

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-errors"
)

// ErrNoEmptyString rejects empty plaintext before it reaches bcrypt
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode("EMPTY_PASSWORD")

// ErrMismatchedHashAndPassword is the verification failure of the hasher
var ErrMismatchedHashAndPassword = errors.New("password does not match stored credential", errors.CategoryAuth).
	WithTextCode("PASSWORD_MISMATCH")

// ErrInvalidCredentials covers both an unknown username and a wrong
// password so a caller cannot enumerate usernames through signin
var ErrInvalidCredentials = errors.New("Invalid credentials.", errors.CategoryAuth).
	WithTextCode("INVALID_CREDENTIALS")

// ErrMissingFields is returned when a password update omits either field
var ErrMissingFields = errors.New("Current password and new password are required.", errors.CategoryValidation).
	WithTextCode("MISSING_FIELDS")

// ErrUserNotFound is returned when an operation references a user id that
// no longer exists
var ErrUserNotFound = errors.New("User not found.", errors.CategoryNotFound).
	WithTextCode("USER_NOT_FOUND")

// ErrInvalidCurrentPassword is returned when the current password of a
// rotation request fails verification
var ErrInvalidCurrentPassword = errors.New("Current password is incorrect.", errors.CategoryAuth).
	WithTextCode("INVALID_CURRENT_PASSWORD")

// ErrTokenExpired is the structured error for tokens past their lifetime
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode("TOKEN_EXPIRED").
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed covers bad signatures and undecodable tokens
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode("TOKEN_MALFORMED").
	WithCode(errors.CodeUnauthorized)

// ErrUnauthenticated is the fail-closed rejection of the request gate
var ErrUnauthenticated = errors.New("Unauthenticated.", errors.CategoryAuth).
	WithTextCode("UNAUTHENTICATED").
	WithCode(errors.CodeUnauthorized)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithTextCode("IDENTITY_NOT_FOUND")

// ErrUnableToDecodeSession unable to decode JWT claims into a session
var ErrUnableToDecodeSession = errors.New("unable to decode session", errors.CategoryAuth).
	WithTextCode("SESSION_DECODE")

// ErrUnableToMapClaims unable to get claims from token
var ErrUnableToMapClaims = errors.New("unable to map claims", errors.CategoryAuth).
	WithTextCode("CLAIMS_MAP")

// NewDuplicateUserError reports a signup against a taken username. The
// message carries the username, matching the service's public contract.
func NewDuplicateUserError(username string) *errors.Error {
	return errors.New(
		fmt.Sprintf("User with username '%s' already exists.", username),
		errors.CategoryConflict,
	).
		WithTextCode("DUPLICATE_USER").
		WithMetadata(map[string]any{"username": username})
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
