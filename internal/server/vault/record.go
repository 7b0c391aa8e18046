package vault

import "time"

// SecretRecord is one stored credential or note. The value is encrypted at
// rest under the owning device's shared secret; the label stays plaintext
// because listings need it.
type SecretRecord struct {
	ID         string    `json:"id"`
	DeviceID   string    `json:"device_id"`
	Label      string    `json:"label"`
	Ciphertext []byte    `json:"ciphertext"`
	Nonce      []byte    `json:"nonce"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// RecordInfo is the listing view: index metadata only, no secret contents.
type RecordInfo struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *SecretRecord) info() RecordInfo {
	return RecordInfo{ID: r.ID, Label: r.Label, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}
}
