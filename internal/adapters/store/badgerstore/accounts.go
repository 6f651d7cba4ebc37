package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/dkeye/rclass/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type credential struct {
	Account      domain.Account `json:"account"`
	PasswordHash []byte         `json:"password_hash"`
}

// CreateAccount registers a member. Logins are unique regardless of case.
func (s *Store) CreateAccount(ctx context.Context, login, name, password string) (*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	acc := domain.Account{ID: domain.MemberID(uuid.NewString()), Login: login, Name: name, Type: domain.AccountMember}
	err = s.db.Update(func(txn *badger.Txn) error {
		taken, err := exists(txn, loginKey(login))
		if err != nil {
			return err
		}
		if taken {
			return domain.ErrAccountExists
		}
		if err := put(txn, loginKey(login), credential{Account: acc, PasswordHash: hash}); err != nil {
			return err
		}
		return put(txn, accountKey(acc.ID), acc)
	})
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

// CreateGuest stores a guest identity that expires on its own.
func (s *Store) CreateGuest(ctx context.Context, name string) (*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	acc, err := domain.NewGuest(name)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(acc)
	if err != nil {
		return nil, err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(accountKey(acc.ID)), data).WithTTL(guestTTL))
	})
	if err != nil {
		return nil, fmt.Errorf("store guest: %w", err)
	}
	return acc, nil
}

// Authenticate never tells an unknown login apart from a wrong password.
func (s *Store) Authenticate(ctx context.Context, login, password string) (*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var cred *credential
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		cred, err = get[credential](txn, loginKey(login))
		return err
	})
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidCredential
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword(cred.PasswordHash, []byte(password)) != nil {
		return nil, domain.ErrInvalidCredential
	}
	return &cred.Account, nil
}
