package orch

import (
	"context"
	"fmt"
	"strings"

	"github.com/dkeye/rclass/internal/app"
	"github.com/dkeye/rclass/internal/domain"
	"github.com/rs/zerolog/log"
)

// Identity changes are refused while the connection sits in a room; the
// room keys everything by the identity it joined with.

func (o *Orchestrator) Login(ctx context.Context, sid app.SessionID, login, password string) (*domain.Account, error) {
	if _, _, ok := o.Registry.RoomOf(sid); ok {
		return nil, domain.ErrAlreadyJoined
	}
	acc, err := o.Authenticate(ctx, login, password)
	if err != nil {
		return nil, err
	}
	o.Registry.BindAccount(sid, acc)
	return acc, nil
}

func (o *Orchestrator) Register(ctx context.Context, sid app.SessionID, login, name, password string) (*domain.Account, error) {
	if _, _, ok := o.Registry.RoomOf(sid); ok {
		return nil, domain.ErrAlreadyJoined
	}
	acc, err := o.CreateAccount(ctx, login, name, password)
	if err != nil {
		return nil, err
	}
	o.Registry.BindAccount(sid, acc)
	return acc, nil
}

func (o *Orchestrator) GuestLogin(ctx context.Context, sid app.SessionID, name string) (*domain.Account, error) {
	if _, _, ok := o.Registry.RoomOf(sid); ok {
		return nil, domain.ErrAlreadyJoined
	}
	acc, err := o.CreateGuest(ctx, name)
	if err != nil {
		return nil, err
	}
	o.Registry.BindAccount(sid, acc)
	return acc, nil
}

// Authenticate, CreateAccount and CreateGuest resolve an identity without
// binding it to a connection. The HTTP session endpoints use them directly.

func (o *Orchestrator) Authenticate(ctx context.Context, login, password string) (*domain.Account, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, domain.ErrInvalidCredential
	}
	return o.Store.Authenticate(ctx, login, password)
}

func (o *Orchestrator) CreateAccount(ctx context.Context, login, name, password string) (*domain.Account, error) {
	login = strings.TrimSpace(login)
	if login == "" || len(login) > domain.MaxLoginLen || password == "" {
		return nil, fmt.Errorf("login: %w", domain.ErrBadPayload)
	}
	name = strings.TrimSpace(name)
	if err := domain.ValidateUsername(name); err != nil {
		return nil, err
	}
	acc, err := o.Store.CreateAccount(ctx, login, name, password)
	if err != nil {
		return nil, err
	}
	log.Info().Str("module", "app.orch").Str("member", string(acc.ID)).Msg("account registered")
	return acc, nil
}

func (o *Orchestrator) CreateGuest(ctx context.Context, name string) (*domain.Account, error) {
	name = strings.TrimSpace(name)
	if err := domain.ValidateUsername(name); err != nil {
		return nil, err
	}
	return o.Store.CreateGuest(ctx, name)
}

// Adopt binds an identity established outside the signal channel, such as
// an HTTP session cookie.
func (o *Orchestrator) Adopt(sid app.SessionID, acc *domain.Account) {
	o.Registry.BindAccount(sid, acc)
}

func (o *Orchestrator) WhoAmI(sid app.SessionID) (*domain.Account, error) {
	return o.identity(sid)
}
