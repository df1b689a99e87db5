// Package entity defines the request forms and response envelope of the web layer.
package entity

import "strings"

// Msg represents a standard API response message with success status, message text, and optional data object.
type Msg struct {
	Success bool   `json:"success"` // Indicates if the operation was successful
	Msg     string `json:"msg"`     // Response message text
	Obj     any    `json:"obj"`     // Optional data object
}

type RegisterForm struct {
	Email    string `json:"email" form:"email" binding:"required,email,max=150"`
	Name     string `json:"name" form:"name" binding:"required,max=150"`
	Password string `json:"password" form:"password" binding:"required,min=8,max=72"`
}

type LoginForm struct {
	Email         string `json:"email" form:"email" binding:"required"`
	Password      string `json:"password" form:"password" binding:"required"`
	TwoFactorCode string `json:"twoFactorCode" form:"twoFactorCode"`
}

type PostForm struct {
	Title    string `json:"title" form:"title" binding:"required,max=250"`
	Subtitle string `json:"subtitle" form:"subtitle" binding:"required,max=250"`
	ImgUrl   string `json:"imgUrl" form:"imgUrl" binding:"required,url,max=250"`
	Body     string `json:"body" form:"body" binding:"required"`
}

// Trim strips surrounding whitespace from the single-line fields.
func (f *PostForm) Trim() {
	f.Title = strings.TrimSpace(f.Title)
	f.Subtitle = strings.TrimSpace(f.Subtitle)
	f.ImgUrl = strings.TrimSpace(f.ImgUrl)
}

type CommentForm struct {
	Body string `json:"body" form:"body" binding:"required"`
}

type TwoFactorForm struct {
	Code string `json:"code" form:"code" binding:"required"`
}

// Identity is what GET /me reports about the caller.
type Identity struct {
	Authenticated bool     `json:"authenticated"`
	Id            int      `json:"id,omitempty"`
	Email         string   `json:"email,omitempty"`
	Name          string   `json:"name,omitempty"`
	Role          string   `json:"role,omitempty"`
	TwoFactor     bool     `json:"twoFactor"`
	CSRFToken     string   `json:"csrfToken"`
	Flashes       []string `json:"flashes"`
}
