package models

import (
	"errors"
	"time"
)

// ErrInvalidCredentials is returned by any authenticator that rejects a login.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Role is the access level of a user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is an authenticated identity.
type User struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
	Avatar string `json:"avatar"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Session binds a token to the user it was issued for.
type Session struct {
	Token        string    `json:"token"`
	User         User      `json:"user"`
	IssuedAt     time.Time `json:"issuedAt"`
	LastAccessed time.Time `json:"-"`
}

// Credentials is what a client submits to log in or register.
type Credentials struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
