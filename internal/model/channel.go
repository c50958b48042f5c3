package model

// Channel names used in probes, summaries and launch payloads.
const (
	ChannelEmail    = "email"
	ChannelSMS      = "sms"
	ChannelVoice    = "voice"
	ChannelLinkedIn = "linkedin"
)

// EmailChannel configures the email sequence.
type EmailChannel struct {
	Sender         string `json:"sender" yaml:"sender"`
	SequenceLength int    `json:"sequence_length" yaml:"sequence_length"`
	DayGap         int    `json:"day_gap" yaml:"day_gap"`
}

// SMSChannel configures the SMS sequence.
type SMSChannel struct {
	FromNumber     string `json:"from_number" yaml:"from_number"`
	SequenceLength int    `json:"sequence_length" yaml:"sequence_length"`
}

// VoiceChannel configures AI voice calls.
type VoiceChannel struct {
	FromNumber     string `json:"from_number" yaml:"from_number"`
	CallDay        int    `json:"call_day" yaml:"call_day"`
	TransferNumber string `json:"transfer_number,omitempty" yaml:"transfer_number"`
}

// Schedule controls when messages may be sent.
type Schedule struct {
	StartDate    string `json:"start_date" yaml:"start_date"`
	WindowStart  string `json:"window_start" yaml:"window_start"`
	WindowEnd    string `json:"window_end" yaml:"window_end"`
	Timezone     string `json:"timezone" yaml:"timezone"`
	WeekdaysOnly bool   `json:"weekdays_only" yaml:"weekdays_only"`
}

// ChannelConfig is the per-campaign channel setup. A nil sub-config means
// the channel is disabled. LinkedIn outreach has no provider and is always
// worked manually.
type ChannelConfig struct {
	Email    *EmailChannel `json:"email,omitempty" yaml:"email"`
	SMS      *SMSChannel   `json:"sms,omitempty" yaml:"sms"`
	Voice    *VoiceChannel `json:"voice,omitempty" yaml:"voice"`
	LinkedIn bool          `json:"linkedin" yaml:"linkedin"`
	Schedule *Schedule     `json:"schedule,omitempty" yaml:"schedule"`
}

// EnabledChannels lists enabled channels in a stable order.
func (c ChannelConfig) EnabledChannels() []string {
	var out []string
	if c.Email != nil {
		out = append(out, ChannelEmail)
	}
	if c.SMS != nil {
		out = append(out, ChannelSMS)
	}
	if c.Voice != nil {
		out = append(out, ChannelVoice)
	}
	if c.LinkedIn {
		out = append(out, ChannelLinkedIn)
	}
	return out
}

// VoiceEnabled reports whether AI voice calls are configured.
func (c ChannelConfig) VoiceEnabled() bool {
	return c.Voice != nil
}

// SenderEmail returns the configured email sender, if any.
func (c ChannelConfig) SenderEmail() string {
	if c.Email == nil {
		return ""
	}
	return c.Email.Sender
}

// EmailSequenceLength is zero when email is disabled.
func (c ChannelConfig) EmailSequenceLength() int {
	if c.Email == nil {
		return 0
	}
	return c.Email.SequenceLength
}

// SMSSequenceLength is zero when SMS is disabled.
func (c ChannelConfig) SMSSequenceLength() int {
	if c.SMS == nil {
		return 0
	}
	return c.SMS.SequenceLength
}
