package client

import (
	"encoding/json"
	"fmt"
	"os"
)

// Session is the device-side pairing state: the identifier the server knows
// this device by and the derived shared secret. It is written after a
// successful pairing and loaded for every later call. The file holds key
// material, so it is created owner-readable only.
type Session struct {
	EndpointAddr    string `json:"endpoint_addr"`
	DeviceID        string `json:"device_id"`
	SharedSecret    []byte `json:"shared_secret"`
	ServerPublicKey []byte `json:"server_public_key"`
}

// LoadSession reads a previously saved session file.
func LoadSession(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading session file: %w", err)
	}

	s := &Session{}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("error parsing session file: %w", err)
	}
	return s, nil
}

// Save writes the session to path with 0600 permissions.
func (s *Session) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
