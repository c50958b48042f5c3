// Package integration checks that every enabled outreach channel has a
// working provider connection before a campaign may launch.
package integration

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/pkg/outreach"
)

// Status is the connectivity state of one channel.
type Status string

const (
	StatusChecking     Status = "checking"
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
	StatusManual       Status = "manual"
)

// ChannelStatus is the verdict for one channel.
type ChannelStatus struct {
	Channel string `json:"channel"`
	Status  Status `json:"status"`
	Details string `json:"details,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Ok reports whether the channel does not block a launch.
func (c ChannelStatus) Ok() bool {
	return c.Status == StatusConnected || c.Status == StatusManual
}

// Report holds one status per enabled channel, in channel order.
type Report struct {
	Channels []ChannelStatus `json:"channels"`
}

// AllConnected is true when every channel is connected or worked manually.
// A report with no channels is never connected.
func (r *Report) AllConnected() bool {
	if r == nil || len(r.Channels) == 0 {
		return false
	}
	for _, c := range r.Channels {
		if !c.Ok() {
			return false
		}
	}
	return true
}

// Get returns the status for channel.
func (r *Report) Get(channel string) (ChannelStatus, bool) {
	for _, c := range r.Channels {
		if c.Channel == channel {
			return c, true
		}
	}
	return ChannelStatus{}, false
}

// Disconnected lists channels that block a launch.
func (r *Report) Disconnected() []string {
	var out []string
	for _, c := range r.Channels {
		if !c.Ok() {
			out = append(out, c.Channel)
		}
	}
	return out
}

// Remote probes provider connections. outreach.Client satisfies it.
type Remote interface {
	ProbeIntegrations(ctx context.Context, req outreach.ProbeRequest) (*outreach.ProbeResponse, error)
}

// Prober resolves channel connectivity with a single remote call.
type Prober struct {
	remote Remote
}

// NewProber creates a Prober.
func NewProber(remote Remote) *Prober {
	return &Prober{remote: remote}
}

// Probe checks every enabled channel in cfg. LinkedIn has no provider and is
// reported as manual. Any probe failure marks every other channel
// disconnected.
func (p *Prober) Probe(ctx context.Context, cfg model.ChannelConfig) *Report {
	log := zap.L().With(zap.String("component", "integration"))

	report := &Report{}
	var remote []string
	for _, ch := range cfg.EnabledChannels() {
		if ch == model.ChannelLinkedIn {
			report.Channels = append(report.Channels, ChannelStatus{
				Channel: ch,
				Status:  StatusManual,
				Details: "Worked manually by the recruiter",
			})
			continue
		}
		report.Channels = append(report.Channels, ChannelStatus{Channel: ch, Status: StatusChecking})
		remote = append(remote, ch)
	}
	if len(remote) == 0 {
		return report
	}

	resp, err := p.remote.ProbeIntegrations(ctx, outreach.ProbeRequest{
		Channels:    remote,
		SenderEmail: cfg.SenderEmail(),
	})
	if err != nil {
		log.Warn("integration: probe failed, marking channels disconnected",
			zap.Strings("channels", remote),
			zap.Error(err),
		)
		for i := range report.Channels {
			if report.Channels[i].Status == StatusChecking {
				report.Channels[i].Status = StatusDisconnected
				report.Channels[i].Details = "Connectivity probe failed"
				report.Channels[i].Error = err.Error()
			}
		}
		return report
	}

	for i := range report.Channels {
		cs := &report.Channels[i]
		if cs.Status != StatusChecking {
			continue
		}
		probe, ok := resp.Channels[cs.Channel]
		switch {
		case !ok:
			cs.Status = StatusDisconnected
			cs.Details = "No probe result returned"
		case probe.Connected:
			cs.Status = StatusConnected
			cs.Details = probe.Details
		default:
			cs.Status = StatusDisconnected
			cs.Details = probe.Details
			cs.Error = probe.Error
		}
	}

	log.Info("integration: probe complete",
		zap.Bool("all_connected", report.AllConnected()),
		zap.Strings("disconnected", report.Disconnected()),
	)
	return report
}
