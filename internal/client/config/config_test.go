package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:52477", cfg.EndpointAddr)
	assert.Equal(t, "onionkeep-session.json", cfg.SessionFile)
}
