package service

import (
	"errors"
	"time"

	"github.com/inkpost/blog/database/model"
	"github.com/inkpost/blog/logger"

	"github.com/xlzd/gotp"
)

const totpIssuer = "blog"

var nowUnix = func() int64 { return time.Now().Unix() }

// AuthService implements the register and login transitions on top of the
// credential store. Session handling is left to the caller.
type AuthService struct {
	users *UserService
}

func NewAuthService(users *UserService) *AuthService {
	return &AuthService{users: users}
}

// Register creates the account. ErrDuplicateEmail is returned unchanged so the
// caller can send the visitor to the login page.
func (s *AuthService) Register(email, displayName, rawPassword string) (*model.User, error) {
	user, err := s.users.CreateUser(email, displayName, rawPassword)
	if err != nil {
		return nil, err
	}
	logger.Infof("registered user %d", user.Id)
	return user, nil
}

// Login returns the account for a matching email, password and (when
// enabled) TOTP code. Every mismatch yields ErrInvalidCredentials; a missing
// account still pays for a bcrypt comparison.
func (s *AuthService) Login(email, rawPassword, twoFactorCode string) (*model.User, error) {
	user, err := s.users.FindByEmail(email)
	if errors.Is(err, ErrUserNotFound) {
		s.users.VerifyCredential(nil, rawPassword)
		return nil, ErrInvalidCredentials
	} else if err != nil {
		return nil, err
	}

	if !s.users.VerifyCredential(user, rawPassword) {
		return nil, ErrInvalidCredentials
	}

	if user.TwoFactorSecret != "" {
		if twoFactorCode == "" || !gotp.NewDefaultTOTP(user.TwoFactorSecret).Verify(twoFactorCode, nowUnix()) {
			return nil, ErrInvalidCredentials
		}
	}
	return user, nil
}

// EnableTwoFactor generates and stores a fresh TOTP secret and returns it
// with its provisioning URI.
func (s *AuthService) EnableTwoFactor(user *model.User) (secret string, uri string, err error) {
	if user.TwoFactorSecret != "" {
		return "", "", ErrTwoFactorActive
	}
	secret = gotp.RandomSecret(32)
	if err = s.users.SetTwoFactorSecret(user.Id, secret); err != nil {
		return "", "", err
	}
	uri = gotp.NewDefaultTOTP(secret).ProvisioningUri(user.Email, totpIssuer)
	return secret, uri, nil
}

// DisableTwoFactor clears the secret once the caller proves possession of it.
func (s *AuthService) DisableTwoFactor(user *model.User, code string) error {
	if user.TwoFactorSecret == "" {
		return nil
	}
	if !gotp.NewDefaultTOTP(user.TwoFactorSecret).Verify(code, nowUnix()) {
		return ErrInvalidCredentials
	}
	return s.users.SetTwoFactorSecret(user.Id, "")
}
