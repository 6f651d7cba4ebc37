// Package rtc implements the media subsystem on top of pion/webrtc. Every
// room router owns its own webrtc.API; every transport is a PeerConnection.
package rtc

import (
	"context"
	"fmt"
	"strings"

	"github.com/dkeye/rclass/internal/app/sfu"
	"github.com/dkeye/rclass/internal/core"
	"github.com/google/uuid"
	"github.com/pion/interceptor"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

// Config is the network side of the media subsystem.
type Config struct {
	ICEServers []string `mapstructure:"ice_servers"`
	UDPPortMin uint16   `mapstructure:"udp_port_min"`
	UDPPortMax uint16   `mapstructure:"udp_port_max" validate:"omitempty,gtefield=UDPPortMin"`
	PublicIPs  []string `mapstructure:"public_ips" validate:"omitempty,dive,ip"`
}

type Worker struct {
	cfg      Config
	settings webrtc.SettingEngine
}

// NewWorker validates the network settings once; failures here are fatal to the process.
func NewWorker(cfg Config) (*Worker, error) {
	var se webrtc.SettingEngine
	if cfg.UDPPortMin != 0 || cfg.UDPPortMax != 0 {
		if err := se.SetEphemeralUDPPortRange(cfg.UDPPortMin, cfg.UDPPortMax); err != nil {
			return nil, fmt.Errorf("udp port range: %w", err)
		}
	}
	if len(cfg.PublicIPs) > 0 {
		se.SetNAT1To1IPs(cfg.PublicIPs, webrtc.ICECandidateTypeHost)
	}
	return &Worker{cfg: cfg, settings: se}, nil
}

// webrtcConfig gathers host candidates only when no ICE server is configured.
func (w *Worker) webrtcConfig() webrtc.Configuration {
	if len(w.cfg.ICEServers) == 0 {
		return webrtc.Configuration{}
	}
	return webrtc.Configuration{ICEServers: []webrtc.ICEServer{{URLs: w.cfg.ICEServers}}}
}

// CreateRouter builds a routing context that accepts exactly the given codecs.
func (w *Worker) CreateRouter(_ context.Context, codecs []core.Codec) (core.Router, error) {
	if len(codecs) == 0 {
		return nil, fmt.Errorf("router needs at least one codec")
	}
	me := &webrtc.MediaEngine{}
	caps := core.Capabilities{Codecs: make([]core.Codec, 0, len(codecs))}
	for _, c := range codecs {
		kind, err := codecType(c.Kind)
		if err != nil {
			return nil, err
		}
		params := webrtc.RTPCodecParameters{
			RTPCodecCapability: capability(c),
			PayloadType:        webrtc.PayloadType(c.PayloadType),
		}
		if err := me.RegisterCodec(params, kind); err != nil {
			return nil, fmt.Errorf("register codec %s: %w", c.MimeType, err)
		}
		caps.Codecs = append(caps.Codecs, c)
	}
	ir := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(me, ir); err != nil {
		return nil, fmt.Errorf("register interceptors: %w", err)
	}
	api := webrtc.NewAPI(webrtc.WithMediaEngine(me), webrtc.WithSettingEngine(w.settings), webrtc.WithInterceptorRegistry(ir))
	r := &Router{
		id:        uuid.NewString(),
		api:       api,
		config:    w.webrtcConfig(),
		caps:      caps,
		relays:    sfu.NewRelayManager(),
		producers: make(map[string]*Producer),
		consumers: make(map[string]*Consumer),
	}
	log.Info().Str("module", "rtc").Str("router", r.id).Int("codecs", len(codecs)).Msg("router created")
	return r, nil
}

func codecType(k core.MediaKind) (webrtc.RTPCodecType, error) {
	switch k {
	case core.KindAudio:
		return webrtc.RTPCodecTypeAudio, nil
	case core.KindVideo:
		return webrtc.RTPCodecTypeVideo, nil
	}
	return 0, fmt.Errorf("unknown media kind %q", k)
}

func mediaKind(t webrtc.RTPCodecType) core.MediaKind {
	if t == webrtc.RTPCodecTypeAudio {
		return core.KindAudio
	}
	return core.KindVideo
}

func capability(c core.Codec) webrtc.RTPCodecCapability {
	return webrtc.RTPCodecCapability{
		MimeType:    c.MimeType,
		ClockRate:   c.ClockRate,
		Channels:    c.Channels,
		SDPFmtpLine: c.FmtpLine,
	}
}

// firstCodec returns the router codec to use for a kind.
func firstCodec(caps core.Capabilities, kind core.MediaKind, mimeType string) (core.Codec, bool) {
	for _, c := range caps.Codecs {
		if c.Kind != kind {
			continue
		}
		if mimeType == "" || strings.EqualFold(c.MimeType, mimeType) {
			return c, true
		}
	}
	return core.Codec{}, false
}
