package config

import (
	"encoding/json"
	"os"

	"github.com/onionkeep/onionkeep/internal/flagx"
)

// JsonConfig is the DTO used only for reading the JSON configuration file.
type JsonConfig struct {
	EndpointAddr string `json:"endpoint_addr"`
	SessionFile  string `json:"session_file"`
}

// parseJson loads configuration from the JSON file given via -c or -config.
// When neither flag is set nothing is loaded.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	config.EndpointAddr = c.EndpointAddr
	config.SessionFile = c.SessionFile
}
