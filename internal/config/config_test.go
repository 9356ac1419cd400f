package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func valid() Config {
	return Config{
		SiteTitle:  "Blog",
		OutputDir:  "public",
		Port:       1313,
		LoadDelay:  800 * time.Millisecond,
		SessionTTL: 30 * time.Minute,
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"port", func(c *Config) { c.Port = 70000 }, "port 70000 out of range"},
		{"delay", func(c *Config) { c.LoadDelay = -time.Second }, "loadDelay"},
		{"ttl", func(c *Config) { c.SessionTTL = 0 }, "sessionTTL"},
		{"theme", func(c *Config) { c.DefaultTheme = "sepia" }, "defaultTheme"},
		{"output", func(c *Config) { c.OutputDir = "" }, "outputDir"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			assert.ErrorContains(t, c.Validate(), tt.want)
		})
	}

	c := valid()
	c.DefaultTheme = "dark"
	c.LoadDelay = 0
	assert.NoError(t, c.Validate())
}
