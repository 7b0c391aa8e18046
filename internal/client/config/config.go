// Package config holds runtime settings for the operator CLI.
package config

// Config holds runtime settings for the CLI.
//
// Fields:
//   - EndpointAddr: base URL of the server, e.g. http://127.0.0.1:52477.
//     When the server is exposed as a hidden service, this is the local
//     address the anonymizing proxy forwards to.
//   - SessionFile: path of the pairing state file written by `pair`.
type Config struct {
	EndpointAddr string
	SessionFile  string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.EndpointAddr = "http://127.0.0.1:52477"
	c.SessionFile = "onionkeep-session.json"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
