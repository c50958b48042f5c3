package main

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/outreach-cli/internal/model"
)

// loadChannels reads a campaign channel configuration from a YAML file:
//
//	email:
//	  sender: recruiter@acme.com
//	  sequence_length: 3
//	sms:
//	  sequence_length: 2
//	voice:
//	  call_day: 4
//	linkedin: true
func loadChannels(path string) (model.ChannelConfig, error) {
	var cfg model.ChannelConfig
	if path == "" {
		return cfg, eris.New("channels file is required (--channels)")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, eris.Wrapf(err, "read channels %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, eris.Wrapf(err, "parse channels %s", path)
	}
	if len(cfg.EnabledChannels()) == 0 {
		return cfg, eris.Errorf("channels %s enables no channel", path)
	}
	return cfg, nil
}
