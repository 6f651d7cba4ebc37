package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dkeye/rclass/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

const guestTTL = 24 * time.Hour

// CreateAccount registers a member. Logins are unique regardless of case.
func (s *Store) CreateAccount(ctx context.Context, login, name, password string) (*domain.Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	acc := &domain.Account{ID: domain.MemberID(uuid.NewString()), Login: login, Name: name, Type: domain.AccountMember}
	_, err = s.db.Exec(ctx, `
		INSERT INTO accounts (account_id, login, login_display, name, account_type, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		string(acc.ID), strings.ToLower(login), login, name, string(acc.Type), hash)
	if err != nil {
		return nil, mapPgError(err, domain.ErrAccountExists)
	}
	return acc, nil
}

// CreateGuest stores a guest identity with an expiry. Expired guests are
// purged on the next guest login.
func (s *Store) CreateGuest(ctx context.Context, name string) (*domain.Account, error) {
	acc, err := domain.NewGuest(name)
	if err != nil {
		return nil, err
	}
	err = s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			DELETE FROM accounts a WHERE a.account_type = 'guest' AND a.expires_at < now()
			AND NOT EXISTS (SELECT 1 FROM class_students cs WHERE cs.student_id = a.account_id)`); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO accounts (account_id, name, account_type, expires_at)
			VALUES ($1, $2, $3, $4)`,
			string(acc.ID), acc.Name, string(acc.Type), time.Now().Add(guestTTL))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("store guest: %w", err)
	}
	return acc, nil
}

// Authenticate never tells an unknown login apart from a wrong password.
func (s *Store) Authenticate(ctx context.Context, login, password string) (*domain.Account, error) {
	var (
		acc  domain.Account
		hash []byte
	)
	err := s.db.QueryRow(ctx, `
		SELECT account_id, login_display, name, account_type, password_hash
		FROM accounts WHERE login = $1 AND account_type = 'member'`, strings.ToLower(login)).
		Scan(&acc.ID, &acc.Login, &acc.Name, &acc.Type, &hash)
	if errors.Is(noRows(err), domain.ErrNotFound) {
		return nil, domain.ErrInvalidCredential
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		return nil, domain.ErrInvalidCredential
	}
	return &acc, nil
}
