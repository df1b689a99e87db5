package service

import "errors"

var (
	// ErrDuplicateEmail is returned when an account with the same email
	// (compared case-insensitively) already exists.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrInvalidCredentials covers every login failure: unknown email, wrong
	// password and wrong two-factor code alike.
	ErrInvalidCredentials = errors.New("incorrect credentials")

	ErrUserNotFound    = errors.New("user not found")
	ErrPostNotFound    = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrDuplicateTitle  = errors.New("a post with this title already exists")
	ErrEmptyField      = errors.New("required field is empty")
	ErrTwoFactorActive = errors.New("two-factor authentication already enabled")
	// ErrPasswordTooLong is returned for passwords bcrypt cannot hash.
	ErrPasswordTooLong = errors.New("password longer than 72 bytes")
)
