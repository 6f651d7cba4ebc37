package orch

import (
	"context"

	"github.com/dkeye/rclass/internal/app"
	"github.com/dkeye/rclass/internal/core"
	"github.com/dkeye/rclass/internal/domain"
)

func (o *Orchestrator) SendChat(ctx context.Context, sid app.SessionID, text string, mode domain.ChatMode, to []domain.MemberID) (domain.ChatMessage, error) {
	var out domain.ChatMessage
	err := o.inRoom(ctx, sid, func(r *core.Room, me domain.MemberID) error {
		var err error
		out, err = r.SendChat(me, text, mode, to, o.nowMS())
		return err
	})
	return out, err
}

func (o *Orchestrator) ChatHistory(ctx context.Context, sid app.SessionID, startSeq, endSeq *int64) (domain.ChatPage, error) {
	var out domain.ChatPage
	err := o.inRoom(ctx, sid, func(r *core.Room, me domain.MemberID) error {
		var err error
		out, err = r.ChatHistory(me, startSeq, endSeq)
		return err
	})
	return out, err
}

// SetGroup creates the group when groupID is 0, edits it otherwise.
func (o *Orchestrator) SetGroup(ctx context.Context, sid app.SessionID, groupID int, videoID, audioID string) (domain.Group, error) {
	var out domain.Group
	err := o.inRoom(ctx, sid, func(r *core.Room, me domain.MemberID) error {
		var err error
		out, err = r.SetGroup(me, groupID, videoID, audioID)
		return err
	})
	return out, err
}

func (o *Orchestrator) DelGroup(ctx context.Context, sid app.SessionID, groupID int) (domain.Group, error) {
	var out domain.Group
	err := o.inRoom(ctx, sid, func(r *core.Room, me domain.MemberID) error {
		var err error
		out, err = r.DelGroup(me, groupID)
		return err
	})
	return out, err
}

func (o *Orchestrator) Groups(ctx context.Context, sid app.SessionID) ([]domain.Group, error) {
	var out []domain.Group
	err := o.inSession(ctx, sid, func(r *core.Room, _ *core.ClientSession) error {
		out = r.GroupList()
		return nil
	})
	return out, err
}
