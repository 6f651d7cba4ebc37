// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

const (
	MaxUsernameLen = 36
	MaxLoginLen    = 64
)

var (
	ErrUsernameTooLong = errors.New("username too long")
	ErrUsernameEmpty   = errors.New("username empty")
)

type AccountType string

const (
	AccountMember AccountType = "member"
	AccountGuest  AccountType = "guest"
)

// Account is a datastore identity. Its ID is the MemberID used inside rooms.
type Account struct {
	ID    MemberID    `json:"id"`
	Login string      `json:"login,omitempty"`
	Name  string      `json:"name"`
	Type  AccountType `json:"type"`
}

// NewGuest builds a guest account that never touches the datastore.
func NewGuest(name string) (*Account, error) {
	name = strings.TrimSpace(name)
	if err := ValidateUsername(name); err != nil {
		return nil, err
	}
	return &Account{ID: MemberID("guest-" + uuid.NewString()), Name: name, Type: AccountGuest}, nil
}

func ValidateUsername(name string) error {
	if len(name) == 0 {
		return ErrUsernameEmpty
	}
	if len(name) > MaxUsernameLen {
		return ErrUsernameTooLong
	}
	return nil
}
