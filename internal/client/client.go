// Package client implements the device side of the protocol: pairing against
// the open registration endpoint and sealed operation calls over the
// envelope endpoint. The shared secret is derived locally, so the server
// never sees the device private key.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/onionkeep/onionkeep/internal/common"
	"github.com/onionkeep/onionkeep/internal/cryptox"
)

// Record is the listing view of a stored secret.
type Record struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Device is the public view of a paired device.
type Device struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type registerRequest struct {
	PublicKey []byte `json:"public_key"`
	Name      string `json:"name"`
}

type registerResponse struct {
	DeviceID         string `json:"device_id"`
	ServerPublicKey  []byte `json:"server_public_key"`
	VerificationCode string `json:"verification_code"`
}

type opRequest struct {
	Op    string `json:"op"`
	ID    string `json:"id,omitempty"`
	Label string `json:"label,omitempty"`
	Value string `json:"value,omitempty"`
	Name  string `json:"name,omitempty"`
}

type opResponse struct {
	Error   string   `json:"error,omitempty"`
	ID      string   `json:"id,omitempty"`
	Value   string   `json:"value,omitempty"`
	Records []Record `json:"records,omitempty"`
	Devices []Device `json:"devices,omitempty"`
}

// Client talks to one server on behalf of one paired device.
type Client struct {
	http    *http.Client
	session *Session
}

func New(session *Session) *Client {
	return &Client{
		http:    &http.Client{Timeout: 30 * time.Second},
		session: session,
	}
}

// Pair registers a new device with the server. It generates a fresh keypair,
// submits the public half, and derives the shared secret from the server's
// public key in the response. The verification code should be compared with
// the one the server operator sees before trusting the pairing.
func Pair(ctx context.Context, endpoint, name string) (*Session, string, error) {
	priv, pub, err := cryptox.GenerateKeyPair()
	if err != nil {
		return nil, "", err
	}

	body, err := json.Marshal(registerRequest{PublicKey: pub, Name: name})
	if err != nil {
		return nil, "", err
	}

	resp, err := postJSON(ctx, &http.Client{Timeout: 30 * time.Second}, endpoint+"/v1/register", body)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", decodeError(resp.Body)
	}

	var reg registerResponse
	if err := json.NewDecoder(resp.Body).Decode(&reg); err != nil {
		return nil, "", fmt.Errorf("error parsing registration response: %w", err)
	}

	secret, err := cryptox.SharedSecret(priv, reg.ServerPublicKey)
	if err != nil {
		return nil, "", fmt.Errorf("error deriving shared secret: %w", err)
	}

	session := &Session{
		EndpointAddr:    endpoint,
		DeviceID:        reg.DeviceID,
		SharedSecret:    secret,
		ServerPublicKey: reg.ServerPublicKey,
	}
	return session, reg.VerificationCode, nil
}

// Status probes the health endpoint. It needs no session.
func Status(ctx context.Context, endpoint string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"/v1/status", nil)
	if err != nil {
		return err
	}

	resp, err := (&http.Client{Timeout: 10 * time.Second}).Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	return nil
}

func (c *Client) Add(ctx context.Context, label, value string) (string, error) {
	resp, err := c.do(ctx, &opRequest{Op: "create", Label: label, Value: value})
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (c *Client) List(ctx context.Context) ([]Record, error) {
	resp, err := c.do(ctx, &opRequest{Op: "list"})
	if err != nil {
		return nil, err
	}
	return resp.Records, nil
}

func (c *Client) Get(ctx context.Context, id string) (string, error) {
	resp, err := c.do(ctx, &opRequest{Op: "get", ID: id})
	if err != nil {
		return "", err
	}
	return resp.Value, nil
}

func (c *Client) Update(ctx context.Context, id, value string) error {
	_, err := c.do(ctx, &opRequest{Op: "update", ID: id, Value: value})
	return err
}

func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.do(ctx, &opRequest{Op: "delete", ID: id})
	return err
}

func (c *Client) Devices(ctx context.Context) ([]Device, error) {
	resp, err := c.do(ctx, &opRequest{Op: "devices"})
	if err != nil {
		return nil, err
	}
	return resp.Devices, nil
}

func (c *Client) Rename(ctx context.Context, name string) error {
	_, err := c.do(ctx, &opRequest{Op: "rename", Name: name})
	return err
}

// Revoke unpairs this device. The session is useless afterwards.
func (c *Client) Revoke(ctx context.Context) error {
	_, err := c.do(ctx, &opRequest{Op: "revoke"})
	return err
}

func additionalData(deviceID string) []byte {
	return []byte("envelope:" + deviceID)
}

// do seals the operation, posts it to the envelope endpoint and opens the
// sealed reply. Replies that arrive without a ciphertext are server-side
// refusals to open the request and carry only an abstract error tag.
func (c *Client) do(ctx context.Context, op *opRequest) (*opResponse, error) {
	plaintext, err := json.Marshal(op)
	if err != nil {
		return nil, err
	}

	nonce, ciphertext, err := cryptox.Seal(c.session.SharedSecret, plaintext, additionalData(c.session.DeviceID))
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(map[string]any{
		"device_id":  c.session.DeviceID,
		"nonce":      nonce,
		"ciphertext": ciphertext,
	})
	if err != nil {
		return nil, err
	}

	httpResp, err := postJSON(ctx, c.http, c.session.EndpointAddr+"/v1/envelope", body)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	var wire struct {
		Error      string `json:"error,omitempty"`
		Nonce      []byte `json:"nonce,omitempty"`
		Ciphertext []byte `json:"ciphertext,omitempty"`
	}
	if err := json.NewDecoder(httpResp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("error parsing response: %w", err)
	}

	if len(wire.Ciphertext) == 0 {
		return nil, tagError(wire.Error)
	}

	opened, err := cryptox.Open(c.session.SharedSecret, wire.Nonce, wire.Ciphertext, additionalData(c.session.DeviceID))
	if err != nil {
		return nil, fmt.Errorf("error opening response: %w", err)
	}

	var resp opResponse
	if err := json.Unmarshal(opened, &resp); err != nil {
		return nil, fmt.Errorf("error parsing response: %w", err)
	}

	if resp.Error != "" {
		return nil, tagError(resp.Error)
	}
	return &resp, nil
}

func postJSON(ctx context.Context, hc *http.Client, url string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return hc.Do(req)
}

func decodeError(r io.Reader) error {
	var wire struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(r).Decode(&wire); err != nil {
		return common.ErrInternal
	}
	return tagError(wire.Error)
}

// tagError maps the abstract outcome tags back to the sentinel errors, so
// callers can branch with errors.Is the same way server code does.
func tagError(tag string) error {
	switch tag {
	case "invalid_input":
		return common.ErrInvalidInput
	case "authentication_failed":
		return common.ErrAuthenticationFailed
	case "not_found":
		return common.ErrNotFound
	case "unavailable":
		return common.ErrStorageUnavailable
	default:
		return fmt.Errorf("%w: %s", common.ErrInternal, tag)
	}
}
