package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/pkg/outreach"
)

type mockRemote struct {
	mock.Mock
}

func (m *mockRemote) ProbeIntegrations(ctx context.Context, req outreach.ProbeRequest) (*outreach.ProbeResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*outreach.ProbeResponse)
	return resp, args.Error(1)
}

var allChannels = model.ChannelConfig{
	Email:    &model.EmailChannel{Sender: "recruiter@acme.com"},
	SMS:      &model.SMSChannel{},
	Voice:    &model.VoiceChannel{},
	LinkedIn: true,
}

func TestProbe_AllConnected(t *testing.T) {
	remote := &mockRemote{}
	remote.On("ProbeIntegrations", mock.Anything, outreach.ProbeRequest{
		Channels:    []string{"email", "sms", "voice"},
		SenderEmail: "recruiter@acme.com",
	}).Return(&outreach.ProbeResponse{Channels: map[string]outreach.ChannelProbe{
		"email": {Connected: true, Details: "mailbox verified"},
		"sms":   {Connected: true, Details: "number active"},
		"voice": {Connected: true, Details: "agent ready"},
	}}, nil).Once()

	report := NewProber(remote).Probe(context.Background(), allChannels)

	require.Len(t, report.Channels, 4)
	assert.True(t, report.AllConnected())
	assert.Empty(t, report.Disconnected())

	li, ok := report.Get(model.ChannelLinkedIn)
	require.True(t, ok)
	assert.Equal(t, StatusManual, li.Status)

	email, _ := report.Get(model.ChannelEmail)
	assert.Equal(t, "mailbox verified", email.Details)
	remote.AssertExpectations(t)
}

func TestProbe_PartialAndMissing(t *testing.T) {
	remote := &mockRemote{}
	remote.On("ProbeIntegrations", mock.Anything, mock.Anything).Return(&outreach.ProbeResponse{
		Channels: map[string]outreach.ChannelProbe{
			"email": {Connected: true},
			"sms":   {Connected: false, Details: "number suspended", Error: "403"},
		},
	}, nil)

	report := NewProber(remote).Probe(context.Background(), allChannels)

	assert.False(t, report.AllConnected())
	assert.Equal(t, []string{"sms", "voice"}, report.Disconnected())

	sms, _ := report.Get(model.ChannelSMS)
	assert.Equal(t, StatusDisconnected, sms.Status)
	assert.Equal(t, "403", sms.Error)

	voice, _ := report.Get(model.ChannelVoice)
	assert.Equal(t, StatusDisconnected, voice.Status)
}

func TestProbe_FailsClosed(t *testing.T) {
	remote := &mockRemote{}
	remote.On("ProbeIntegrations", mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))

	report := NewProber(remote).Probe(context.Background(), allChannels)

	assert.False(t, report.AllConnected())
	for _, c := range report.Channels {
		if c.Channel == model.ChannelLinkedIn {
			assert.Equal(t, StatusManual, c.Status)
			continue
		}
		assert.Equal(t, StatusDisconnected, c.Status, c.Channel)
		assert.Equal(t, "timeout", c.Error)
	}
}

func TestProbe_LinkedInOnlySkipsRemote(t *testing.T) {
	remote := &mockRemote{}
	report := NewProber(remote).Probe(context.Background(), model.ChannelConfig{LinkedIn: true})

	assert.True(t, report.AllConnected())
	remote.AssertNotCalled(t, "ProbeIntegrations", mock.Anything, mock.Anything)
}

func TestReport_EmptyIsNotConnected(t *testing.T) {
	report := NewProber(&mockRemote{}).Probe(context.Background(), model.ChannelConfig{})
	assert.Empty(t, report.Channels)
	assert.False(t, report.AllConnected())

	var nilReport *Report
	assert.False(t, nilReport.AllConnected())
}
