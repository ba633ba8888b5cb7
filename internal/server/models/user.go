// Package models holds the persistent server-side entities.
package models

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/soundhub/internal/common"
)

// User is a registered identity. PasswordHash is an encoded hash and is
// never exposed outside the auth core.
type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	IsActive     bool
	IsStaff      bool
	IsSuperuser  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasUsablePassword reports whether the user can sign in with a password.
func (u *User) HasUsablePassword() bool {
	return u.PasswordHash != "" && !strings.HasPrefix(u.PasswordHash, common.UnusablePasswordPrefix)
}
