package auth

import (
	"context"
	"database/sql"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// CoolDownPeriod is how long a failed-login counter stays relevant. Once a
// user's last attempt falls outside this window the counter restarts at one.
var CoolDownPeriod = "20m"

type Auther struct {
	repo            RepositoryManager
	signingKey      []byte
	tokenExpiration int
	issuer          string
	audience        []string
	logger          Logger
	tokenService    TokenService
	tokenValidator  TokenValidator
}

var _ Authenticator = (*Auther)(nil)

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(repo RepositoryManager, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenExpiration(),
		opts.GetIssuer(),
		opts.GetAudience(),
		defLogger{},
	)

	return &Auther{
		repo:            repo,
		signingKey:      []byte(opts.GetSigningKey()),
		tokenExpiration: opts.GetTokenExpiration(),
		audience:        opts.GetAudience(),
		issuer:          opts.GetIssuer(),
		logger:          defLogger{},
		tokenService:    tokenService,
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	// Keep the TokenService logger in sync
	s.tokenService = NewTokenService(
		s.signingKey,
		s.tokenExpiration,
		s.issuer,
		s.audience,
		logger,
	)
	return s
}

// WithTokenValidator sets a custom token validator for externally issued tokens.
func (s *Auther) WithTokenValidator(validator TokenValidator) *Auther {
	s.tokenValidator = validator
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Signup registers a new credential and signs the first token for it. The
// username is claimed atomically: a concurrent signup for the same name
// surfaces as a duplicate error, never as a second account.
func (s *Auther) Signup(ctx context.Context, username, password string) (string, error) {
	if _, err := s.repo.Users().GetByUsername(ctx, username); err == nil {
		return "", NewDuplicateUserError(username)
	} else if !repository.IsRecordNotFound(err) {
		s.logger.Error("Signup username lookup error", "error", err)
		return "", err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return "", err
	}

	user := &User{
		ID:           s.newUserID(username),
		Username:     username,
		PasswordHash: hash,
	}

	err = s.repo.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := s.repo.Users().RegisterTx(ctx, tx, user)
		return err
	})

	if err != nil {
		if IsUniqueViolation(err) {
			return "", NewDuplicateUserError(username)
		}
		s.logger.Error("Signup create user error", "error", err)
		return "", err
	}

	return s.tokenService.Generate(user.Identity())
}

// Signin verifies a credential pair and issues a token. Unknown usernames
// and wrong passwords return the same error so the endpoint cannot be used
// to enumerate accounts.
func (s *Auther) Signin(ctx context.Context, username, password string) (string, error) {
	user, err := s.repo.Users().GetByUsername(ctx, username)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return "", ErrInvalidCredentials
		}
		s.logger.Error("Signin username lookup error", "error", err)
		return "", err
	}

	s.resetStaleAttempts(user)

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		if terr := s.repo.Users().TrackAttemptedLogin(ctx, user); terr != nil {
			s.logger.Warn("Signin track attempted login error: %v", terr)
		}
		return "", ErrInvalidCredentials
	}

	if err := s.repo.Users().TrackSuccessfulLogin(ctx, user); err != nil {
		// Bookkeeping only, the credential already checked out
		s.logger.Warn("Signin track successful login error: %v", err)
	}

	return s.tokenService.Generate(user.Identity())
}

// UpdatePassword rotates a credential after verifying the current one.
// Tokens issued before the rotation stay valid until they expire.
func (s *Auther) UpdatePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return ErrMissingFields
	}

	user, err := s.repo.Users().FindByID(ctx, userID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrUserNotFound
		}
		s.logger.Error("UpdatePassword user lookup error", "error", err)
		return err
	}

	if err := ComparePasswordAndHash(currentPassword, user.PasswordHash); err != nil {
		return ErrInvalidCurrentPassword
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.repo.Users().UpdatePassword(ctx, user.ID, hash); err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrUserNotFound
		}
		s.logger.Error("UpdatePassword persist error", "error", err)
		return err
	}

	return nil
}

// DeleteAccount removes a user and every note the user owns, in one
// transaction. Outstanding tokens for the account keep verifying until
// expiry but fail identity resolution.
func (s *Auther) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.repo.Users().FindByID(ctx, userID); err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrUserNotFound
		}
		s.logger.Error("DeleteAccount user lookup error", "error", err)
		return err
	}

	err := s.repo.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return s.repo.Users().RemoveTx(ctx, tx, userID)
	})

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrUserNotFound
		}
		s.logger.Error("DeleteAccount remove error", "error", err)
		return err
	}

	return nil
}

func (s Auther) SessionFromToken(raw string) (Session, error) {
	validator := s.tokenValidator
	if validator == nil {
		validator = s.tokenService
	}

	claims, err := validator.Validate(raw)
	if err != nil {
		s.logger.Error("SessionFromToken validation failed", "error", err)
		return nil, err
	}

	session, err := sessionFromAuthClaims(claims)
	if err != nil {
		s.logger.Error("SessionFromToken failed to create session from claims", "error", err)
		return nil, err
	}

	return session, nil
}

func (s *Auther) IdentityFromSession(ctx context.Context, session Session) (*User, error) {
	id, err := session.GetUserUUID()
	if err != nil {
		s.logger.Error("IdentityFromSession parse user id: %s", err)
		return nil, errors.Wrap(err, errors.CategoryAuth, ErrUnableToDecodeSession.Message).
			WithTextCode(ErrUnableToDecodeSession.TextCode)
	}

	user, err := s.repo.Users().FindByID(ctx, id)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		s.logger.Error("IdentityFromSession user lookup error", "error", err)
		return nil, err
	}

	return user, nil
}

// newUserID derives a stable id from the username so the same name always
// maps to the same uuid. Random fallback if derivation ever fails.
func (s *Auther) newUserID(username string) uuid.UUID {
	if id, err := hashid.NewUUID(username); err == nil {
		return id
	}
	return uuid.New()
}

// resetStaleAttempts clears the in-memory view of the failure counter once
// the last attempt fell outside the cool down window, so the next tracked
// failure starts a fresh streak.
func (s *Auther) resetStaleAttempts(user *User) {
	if user.LoginAttemptAt == nil {
		return
	}

	outside, err := IsOutsideThresholdPeriod(*user.LoginAttemptAt, CoolDownPeriod)
	if err != nil {
		s.logger.Warn("resetStaleAttempts bad cool down pattern: %v", err)
		return
	}

	if outside {
		user.LoginAttempts = 0
	}
}
