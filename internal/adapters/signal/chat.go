package signal

import (
	"context"
	"encoding/json"

	"github.com/dkeye/rclass/internal/app"
	"github.com/dkeye/rclass/internal/domain"
	"github.com/samber/lo"
)

type chatSendPayload struct {
	Msg    string   `json:"msg"`
	Mode   string   `json:"mode"`
	SendTo []string `json:"send_to"`
}

type chatHistoryPayload struct {
	StartSeq *int64 `json:"start_seq"`
	EndSeq   *int64 `json:"end_seq"`
}

type setGroupPayload struct {
	GroupID int    `json:"group_id" validate:"gte=0"`
	VideoID string `json:"video_id"`
	AudioID string `json:"audio_id"`
}

type delGroupPayload struct {
	GroupID int `json:"group_id" validate:"gt=0"`
}

func (ctl *SignalWSController) handleChatSend(ctx context.Context, sid app.SessionID, raw json.RawMessage) (any, error) {
	p, err := decode[chatSendPayload](ctl, raw)
	if err != nil {
		return nil, err
	}
	acc, err := ctl.Orch.WhoAmI(sid)
	if err != nil {
		return nil, err
	}
	if !ctl.limiter.Allow(acc.ID) {
		return nil, domain.ErrRateLimited
	}
	to := lo.Map(p.SendTo, func(id string, _ int) domain.MemberID { return domain.MemberID(id) })
	return ctl.Orch.SendChat(ctx, sid, p.Msg, domain.ChatMode(p.Mode), to)
}

func (ctl *SignalWSController) handleChatHistory(ctx context.Context, sid app.SessionID, raw json.RawMessage) (any, error) {
	p, err := decode[chatHistoryPayload](ctl, raw)
	if err != nil {
		return nil, err
	}
	return ctl.Orch.ChatHistory(ctx, sid, p.StartSeq, p.EndSeq)
}

func (ctl *SignalWSController) handleSetGroup(ctx context.Context, sid app.SessionID, raw json.RawMessage) (any, error) {
	p, err := decode[setGroupPayload](ctl, raw)
	if err != nil {
		return nil, err
	}
	return ctl.Orch.SetGroup(ctx, sid, p.GroupID, p.VideoID, p.AudioID)
}

func (ctl *SignalWSController) handleGetGroups(ctx context.Context, sid app.SessionID, _ json.RawMessage) (any, error) {
	return ctl.Orch.Groups(ctx, sid)
}

func (ctl *SignalWSController) handleDelGroup(ctx context.Context, sid app.SessionID, raw json.RawMessage) (any, error) {
	p, err := decode[delGroupPayload](ctl, raw)
	if err != nil {
		return nil, err
	}
	return ctl.Orch.DelGroup(ctx, sid, p.GroupID)
}
