// Package model contains the records persisted by gorm. Records reference each
// other by id only; relationship traversal is a query in the service layer.
package model

import (
	"strings"
	"time"
)

// Role is an explicit attribute of a user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	Id              int       `json:"id" gorm:"primaryKey;autoIncrement"`
	Email           string    `json:"email" gorm:"size:150;not null"`
	EmailKey        string    `json:"-" gorm:"size:150;not null;uniqueIndex"`
	DisplayName     string    `json:"name" gorm:"size:150;not null"`
	PasswordHash    string    `json:"-" gorm:"size:150;not null"`
	Role            Role      `json:"role" gorm:"size:16;not null;default:user"`
	TwoFactorSecret string    `json:"-" gorm:"size:64"`
	CreatedAt       time.Time `json:"createdAt"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// NormalizeEmail returns the key emails are compared by.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type Post struct {
	Id       int    `json:"id" gorm:"primaryKey;autoIncrement"`
	AuthorId int    `json:"authorId" gorm:"not null;index"`
	Title    string `json:"title" gorm:"size:250;not null;uniqueIndex"`
	Subtitle string `json:"subtitle" gorm:"size:250;not null"`
	Date     string `json:"date" gorm:"size:250;not null"`
	Body     string `json:"body" gorm:"type:text;not null"`
	ImgUrl   string `json:"imgUrl" gorm:"size:250;not null"`

	// Author is a foreign key constraint holder only; it is never preloaded.
	Author *User `json:"-" gorm:"foreignKey:AuthorId;constraint:OnDelete:RESTRICT"`
}

type Comment struct {
	Id       int    `json:"id" gorm:"primaryKey;autoIncrement"`
	PostId   int    `json:"postId" gorm:"not null;index"`
	AuthorId int    `json:"authorId" gorm:"not null;index"`
	Text     string `json:"text" gorm:"type:text;not null"`

	Post   *Post `json:"-" gorm:"foreignKey:PostId;constraint:OnDelete:CASCADE"`
	Author *User `json:"-" gorm:"foreignKey:AuthorId;constraint:OnDelete:RESTRICT"`
}

type AuditLog struct {
	ID         int       `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID     int       `json:"userId" gorm:"index"`
	Email      string    `json:"email"`
	Action     string    `json:"action" gorm:"index"`
	Resource   string    `json:"resource"`
	ResourceID int       `json:"resourceId"`
	IP         string    `json:"ip"`
	UserAgent  string    `json:"userAgent"`
	Details    string    `json:"details"`
	Timestamp  time.Time `json:"timestamp" gorm:"index"`
}
