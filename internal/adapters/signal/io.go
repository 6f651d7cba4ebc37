package signal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dkeye/rclass/internal/app"
	"github.com/dkeye/rclass/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// request is what a client sends; id is echoed back untouched.
type request struct {
	ID      json.RawMessage `json:"id,omitempty"`
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type response struct {
	Type   string          `json:"type"`
	ID     json.RawMessage `json:"id,omitempty"`
	Name   string          `json:"name"`
	Result bool            `json:"result"`
	Data   any             `json:"data,omitempty"`
}

type handlerFunc func(ctx context.Context, sid app.SessionID, payload json.RawMessage) (any, error)

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Msg("writePump ctx done")
			c.Close()
			return
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, cancel context.CancelFunc, sid app.SessionID, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closing")
		cancel()
		ctl.Orch.Disconnect(context.WithoutCancel(ctx), sid)
		ctl.limiter.Forget()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read error")
				}
				return
			}
			ctl.handleSignal(ctx, sid, c, data)
		}
	}
}

// handleSignal runs one request to completion; requests of a connection are
// therefore answered in order.
func (ctl *SignalWSController) handleSignal(ctx context.Context, sid app.SessionID, c *WsSignalConn, data []byte) {
	var req request
	if err := json.Unmarshal(data, &req); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad json")
		ctl.sendJSON(c, response{Type: "response", Result: false, Data: domain.Reason(domain.ErrBadPayload)})
		return
	}
	resp := ctl.dispatch(ctx, sid, req)
	ctl.sendJSON(c, resp)
}

func (ctl *SignalWSController) dispatch(ctx context.Context, sid app.SessionID, req request) response {
	resp := response{Type: "response", ID: req.ID, Name: req.Name}
	h, ok := ctl.handlers[req.Name]
	if !ok {
		log.Warn().Str("module", "signal").Str("name", req.Name).Msg("unknown signal")
		resp.Data = domain.Reason(fmt.Errorf("unknown request %q: %w", req.Name, domain.ErrBadPayload))
		return resp
	}

	ctx, cancel := context.WithTimeout(ctx, ctl.opts.RequestTimeout)
	defer cancel()
	data, err := h(ctx, sid, req.Payload)
	if err != nil {
		reason := domain.Reason(err)
		ev := log.Debug()
		if reason == domain.ErrInternal.Error() {
			ev = log.Error()
		}
		ev.Err(err).Str("module", "signal").Str("sid", string(sid)).Str("name", req.Name).Msg("request failed")
		resp.Data = reason
		return resp
	}
	resp.Result = true
	resp.Data = data
	return resp
}

// decode unmarshals and validates a request payload.
func decode[T any](ctl *SignalWSController, raw json.RawMessage) (T, error) {
	var p T
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p); err != nil {
			return p, fmt.Errorf("%w: %w", domain.ErrBadPayload, err)
		}
	}
	if err := ctl.validate.Struct(&p); err != nil {
		return p, fmt.Errorf("%w: %w", domain.ErrBadPayload, err)
	}
	return p, nil
}

func (ctl *SignalWSController) sendJSON(c *WsSignalConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	if err := c.TrySend(b); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("sendJSON")
	}
}
