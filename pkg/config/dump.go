package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

const redacted = "********"

// Redacted returns a copy with secrets masked.
func (c *Config) Redacted() *Config {
	out := *c
	out.AI.APIKey = mask(c.AI.APIKey)
	out.Auth.JWTSecret = mask(c.Auth.JWTSecret)
	out.Integrations.Telegram.Token = mask(c.Integrations.Telegram.Token)
	out.Integrations.Discord.Token = mask(c.Integrations.Discord.Token)
	if len(c.Auth.Users) > 0 {
		out.Auth.Users = make(map[string]string, len(c.Auth.Users))
		for name := range c.Auth.Users {
			out.Auth.Users[name] = redacted
		}
	}
	out.Schedules = append([]ScheduleConfig(nil), c.Schedules...)
	return &out
}

// YAML renders the configuration in the same shape Load reads.
func (c *Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return out, nil
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return redacted
}
