package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/model"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadChannels(t *testing.T) {
	path := writeFile(t, "channels.yaml", `
email:
  sender: recruiter@acme.com
  sequence_length: 3
  day_gap: 2
voice:
  call_day: 4
  transfer_number: "+15559999999"
linkedin: true
schedule:
  timezone: America/Chicago
  weekdays_only: true
`)

	got, err := loadChannels(path)
	require.NoError(t, err)

	assert.Equal(t, []string{model.ChannelEmail, model.ChannelVoice, model.ChannelLinkedIn}, got.EnabledChannels())
	assert.Equal(t, "recruiter@acme.com", got.SenderEmail())
	assert.Equal(t, 3, got.EmailSequenceLength())
	assert.Equal(t, 4, got.Voice.CallDay)
	assert.Equal(t, "+15559999999", got.Voice.TransferNumber)
	require.NotNil(t, got.Schedule)
	assert.True(t, got.Schedule.WeekdaysOnly)
}

func TestLoadChannels_Errors(t *testing.T) {
	_, err := loadChannels("")
	assert.ErrorContains(t, err, "--channels")

	_, err = loadChannels(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read channels")

	_, err = loadChannels(writeFile(t, "bad.yaml", "email: [unclosed"))
	assert.ErrorContains(t, err, "parse channels")

	_, err = loadChannels(writeFile(t, "none.yaml", "linkedin: false\n"))
	assert.ErrorContains(t, err, "enables no channel")
}
