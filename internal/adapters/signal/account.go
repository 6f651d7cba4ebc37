package signal

import (
	"context"
	"encoding/json"

	"github.com/dkeye/rclass/internal/app"
)

type loginPayload struct {
	Login    string `json:"login" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=128"`
}

type registerPayload struct {
	Login    string `json:"login" validate:"required,max=64"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type guestPayload struct {
	Name string `json:"name" validate:"required"`
}

func (ctl *SignalWSController) handleWhoAmI(_ context.Context, sid app.SessionID, _ json.RawMessage) (any, error) {
	acc, err := ctl.Orch.WhoAmI(sid)
	if err != nil {
		return nil, err
	}
	resp := struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Type string `json:"type"`
		Room string `json:"room,omitempty"`
	}{ID: string(acc.ID), Name: acc.Name, Type: string(acc.Type)}
	if room, _, ok := ctl.Orch.Registry.RoomOf(sid); ok {
		resp.Room = string(room)
	}
	return resp, nil
}

func (ctl *SignalWSController) handleLogin(ctx context.Context, sid app.SessionID, raw json.RawMessage) (any, error) {
	p, err := decode[loginPayload](ctl, raw)
	if err != nil {
		return nil, err
	}
	return ctl.Orch.Login(ctx, sid, p.Login, p.Password)
}

func (ctl *SignalWSController) handleRegister(ctx context.Context, sid app.SessionID, raw json.RawMessage) (any, error) {
	p, err := decode[registerPayload](ctl, raw)
	if err != nil {
		return nil, err
	}
	return ctl.Orch.Register(ctx, sid, p.Login, p.Name, p.Password)
}

func (ctl *SignalWSController) handleGuestLogin(ctx context.Context, sid app.SessionID, raw json.RawMessage) (any, error) {
	p, err := decode[guestPayload](ctl, raw)
	if err != nil {
		return nil, err
	}
	return ctl.Orch.GuestLogin(ctx, sid, p.Name)
}
