package service

import (
	"fmt"
	"strings"

	"github.com/inkpost/blog/database"
	"github.com/inkpost/blog/database/model"
	"github.com/inkpost/blog/util/crypto"

	"gorm.io/gorm"
)

// maxPasswordBytes is bcrypt's input limit.
const maxPasswordBytes = 72

// UserService is the credential store: it creates accounts, looks them up and
// checks passwords against the stored bcrypt hash.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// CreateUser stores a new account with role user. Email uniqueness is decided
// by the unique index on email_key, so concurrent registrations with the same
// address cannot both succeed.
func (s *UserService) CreateUser(email, displayName, rawPassword string) (*model.User, error) {
	email = strings.TrimSpace(email)
	displayName = strings.TrimSpace(displayName)
	if email == "" || displayName == "" || rawPassword == "" {
		return nil, ErrEmptyField
	}
	if len(rawPassword) > maxPasswordBytes {
		return nil, ErrPasswordTooLong
	}

	key := model.NormalizeEmail(email)
	var count int64
	if err := s.db.Model(&model.User{}).Where("email_key = ?", key).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrDuplicateEmail
	}

	hash, err := crypto.HashPasswordAsBcrypt(rawPassword)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Email:        email,
		EmailKey:     key,
		DisplayName:  displayName,
		PasswordHash: hash,
		Role:         model.RoleUser,
	}
	if err := s.db.Create(user).Error; err != nil {
		if database.IsDuplicate(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) FindByEmail(email string) (*model.User, error) {
	user := &model.User{}
	err := s.db.Where("email_key = ?", model.NormalizeEmail(email)).First(user).Error
	if database.IsNotFound(err) {
		return nil, ErrUserNotFound
	} else if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetByID(id int) (*model.User, error) {
	user := &model.User{}
	err := s.db.First(user, id).Error
	if database.IsNotFound(err) {
		return nil, ErrUserNotFound
	} else if err != nil {
		return nil, err
	}
	return user, nil
}

// VerifyCredential reports whether rawPassword matches the user's stored hash.
func (s *UserService) VerifyCredential(user *model.User, rawPassword string) bool {
	if user == nil {
		crypto.BurnPasswordCheck(rawPassword)
		return false
	}
	return crypto.CheckPasswordHash(user.PasswordHash, rawPassword)
}

// SetRole changes the role of the account registered under email.
func (s *UserService) SetRole(email string, role model.Role) error {
	if role != model.RoleAdmin && role != model.RoleUser {
		return fmt.Errorf("unknown role %q", role)
	}
	res := s.db.Model(&model.User{}).
		Where("email_key = ?", model.NormalizeEmail(email)).
		Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *UserService) SetTwoFactorSecret(id int, secret string) error {
	res := s.db.Model(&model.User{}).Where("id = ?", id).Update("two_factor_secret", secret)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *UserService) ListAdmins() ([]model.User, error) {
	var users []model.User
	err := s.db.Where("role = ?", model.RoleAdmin).Order("id ASC").Find(&users).Error
	return users, err
}
