package core

import (
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/dkeye/rclass/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// SendChat appends a message to the room log and delivers it. Any mode other
// than PRIVATE is ALL. For private messages only recipients currently in the
// room are kept, plus the sender. Length is counted in characters.
func (r *Room) SendChat(from domain.MemberID, text string, mode domain.ChatMode, to []domain.MemberID, now int64) (domain.ChatMessage, error) {
	if _, err := r.Session(from); err != nil {
		return domain.ChatMessage{}, err
	}
	if text == "" {
		return domain.ChatMessage{}, domain.ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > domain.MaxChatLen {
		return domain.ChatMessage{}, domain.ErrMessageTooLong
	}

	recipients := []domain.MemberID{}
	if mode == domain.ChatPrivate {
		recipients = append(recipients, from)
		for _, id := range to {
			if _, ok := r.Clients[id]; ok && !lo.Contains(recipients, id) {
				recipients = append(recipients, id)
			}
		}
		if len(recipients) == 1 {
			return domain.ChatMessage{}, domain.ErrNoValidRecipients
		}
	} else {
		mode = domain.ChatAll
	}

	r.LastSeq++
	msg := domain.ChatMessage{
		Seq:    r.LastSeq,
		MsgID:  fmt.Sprintf("%s-%d", r.Name, r.LastSeq),
		TS:     now,
		Msg:    text,
		Mode:   mode,
		SendTo: recipients,
		From:   from,
	}
	r.ChatLog = append(r.ChatLog, msg)

	ev := Event{Type: EventChatMessage, Data: msg}
	if mode == domain.ChatAll {
		r.broadcast(ev)
	} else {
		for _, id := range recipients {
			r.send(id, ev)
		}
	}
	log.Debug().Str("module", "core.chat").Str("room", string(r.Name)).Str("msg_id", msg.MsgID).Str("mode", string(mode)).Msg("chat message")
	return msg, nil
}

// ChatHistory returns a window of the messages visible to viewer. Bounds are
// inclusive sequence numbers; nil means unbounded.
func (r *Room) ChatHistory(viewer domain.MemberID, startSeq, endSeq *int64) (domain.ChatPage, error) {
	if _, err := r.Session(viewer); err != nil {
		return domain.ChatPage{}, err
	}
	visible := lo.Filter(r.ChatLog, func(m domain.ChatMessage, _ int) bool { return m.VisibleTo(viewer) })
	return window(visible, startSeq, endSeq), nil
}

// window expects msgs ordered by Seq.
func window(msgs []domain.ChatMessage, startSeq, endSeq *int64) domain.ChatPage {
	page := domain.ChatPage{Messages: []domain.ChatMessage{}}
	n := len(msgs)
	if n == 0 {
		return page
	}
	minSeq, maxSeq := msgs[0].Seq, msgs[n-1].Seq
	clamp := func(s int64) int64 { return max(minSeq, min(s, maxSeq)) }
	lower := func(seq int64) int { return sort.Search(n, func(i int) bool { return msgs[i].Seq >= seq }) }
	upper := func(seq int64) int { return sort.Search(n, func(i int) bool { return msgs[i].Seq > seq }) }

	var left, right int
	switch {
	case startSeq == nil && endSeq == nil:
		right = n
		left = max(0, right-domain.DefaultChatWindow)
	case startSeq == nil:
		right = upper(clamp(*endSeq))
		left = max(0, right-domain.MaxChatWindow)
	case endSeq == nil:
		left = lower(clamp(*startSeq))
		right = min(n, left+domain.MaxChatWindow)
	default:
		s, e := *startSeq, *endSeq
		if s > e {
			s, e = e, s
		}
		if e-s+1 > domain.MaxChatWindow {
			s = e - (domain.MaxChatWindow - 1)
		}
		s, e = max(minSeq, s), min(maxSeq, e)
		left, right = lower(s), upper(e)
		if right < left {
			right = left
		}
	}

	page.Messages = append(page.Messages, msgs[left:right]...)
	page.Before = left
	page.After = n - right
	return page
}
