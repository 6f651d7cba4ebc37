package signal

import (
	"context"
	"encoding/json"

	"github.com/dkeye/rclass/internal/app"
	"github.com/dkeye/rclass/internal/core"
)

type capabilitiesPayload struct {
	Capabilities core.Capabilities `json:"rtpCapabilities"`
}

type connectPayload struct {
	TransportID string `json:"transportId" validate:"required"`
	core.ConnectParams
}

type producePayload struct {
	TransportID string             `json:"transportId" validate:"required"`
	Kind        core.MediaKind     `json:"kind" validate:"required"`
	Params      core.RTPParameters `json:"rtpParameters"`
}

type consumePayload struct {
	TransportID string `json:"transportId" validate:"required"`
	ProducerID  string `json:"producerId" validate:"required"`
}

type resumePayload struct {
	ConsumerID string `json:"consumerId" validate:"required"`
}

func (ctl *SignalWSController) handleStoreCapabilities(ctx context.Context, sid app.SessionID, raw json.RawMessage) (any, error) {
	p, err := decode[capabilitiesPayload](ctl, raw)
	if err != nil {
		return nil, err
	}
	return nil, ctl.Orch.StoreCapabilities(ctx, sid, p.Capabilities)
}

func (ctl *SignalWSController) handleCreateTransport(ctx context.Context, sid app.SessionID, raw json.RawMessage) (any, error) {
	opts, err := decode[core.TransportOptions](ctl, raw)
	if err != nil {
		return nil, err
	}
	id, err := ctl.Orch.CreateTransport(ctx, sid, opts)
	if err != nil {
		return nil, err
	}
	return map[string]string{"id": id}, nil
}

func (ctl *SignalWSController) handleConnectTransport(ctx context.Context, sid app.SessionID, raw json.RawMessage) (any, error) {
	p, err := decode[connectPayload](ctl, raw)
	if err != nil {
		return nil, err
	}
	return ctl.Orch.ConnectTransport(ctx, sid, p.TransportID, p.ConnectParams)
}

func (ctl *SignalWSController) handleProduce(ctx context.Context, sid app.SessionID, raw json.RawMessage) (any, error) {
	p, err := decode[producePayload](ctl, raw)
	if err != nil {
		return nil, err
	}
	id, err := ctl.Orch.Produce(ctx, sid, p.TransportID, p.Kind, p.Params)
	if err != nil {
		return nil, err
	}
	return map[string]string{"id": id}, nil
}

func (ctl *SignalWSController) handleConsume(ctx context.Context, sid app.SessionID, raw json.RawMessage) (any, error) {
	p, err := decode[consumePayload](ctl, raw)
	if err != nil {
		return nil, err
	}
	return ctl.Orch.Consume(ctx, sid, p.TransportID, p.ProducerID)
}

func (ctl *SignalWSController) handleResumeConsumer(ctx context.Context, sid app.SessionID, raw json.RawMessage) (any, error) {
	p, err := decode[resumePayload](ctl, raw)
	if err != nil {
		return nil, err
	}
	return nil, ctl.Orch.ResumeConsumer(ctx, sid, p.ConsumerID)
}
