package config

import (
	"encoding/json"
	"os"

	"github.com/onionkeep/onionkeep/internal/flagx"
	"github.com/onionkeep/onionkeep/internal/timex"
)

// JsonConfig is the DTO used only for reading the JSON configuration file.
// Interval fields use timex.Duration so both "5s" and integer nanoseconds
// parse. After unmarshalling, values are copied into the runtime Config.
type JsonConfig struct {
	EndpointAddr     string         `json:"endpoint_addr"`
	AllowNonLoopback bool           `json:"allow_non_loopback"`
	StorageBackend   string         `json:"storage_backend"`
	DatabaseDSN      string         `json:"database_dsn"`
	S3RootUser       string         `json:"s3_root_user"`
	S3RootPassword   string         `json:"s3_root_password"`
	S3Bucket         string         `json:"s3_bucket"`
	S3Region         string         `json:"s3_region"`
	S3BaseEndpoint   string         `json:"s3_base_endpoint"`
	StorageTimeout   timex.Duration `json:"storage_timeout"`
}

// parseJson loads configuration from the JSON file given via -c or -config.
// When neither flag is set nothing is loaded. An unreadable or invalid file
// panics; a server silently running on defaults the operator did not choose
// is worse than a refused start.
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
	config.AllowNonLoopback = c.AllowNonLoopback
	config.StorageBackend = c.StorageBackend
	config.DatabaseDSN = c.DatabaseDSN
	config.S3RootUser = c.S3RootUser
	config.S3RootPassword = c.S3RootPassword
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
	config.StorageTimeout = c.StorageTimeout.Duration
}
