package devices

import "time"

// Device is a paired client. Everything except Name is immutable once the
// record is committed; re-pairing means revoke plus a fresh registration
// under a new identifier.
type Device struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	PublicKey    []byte    `json:"public_key"`
	SharedSecret []byte    `json:"shared_secret"`
	CreatedAt    time.Time `json:"created_at"`
}

// PublicDevice is the view of a device safe to show to clients: no key
// material.
type PublicDevice struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ToPublic strips key material from the device.
func (d *Device) ToPublic() PublicDevice {
	return PublicDevice{ID: d.ID, Name: d.Name, CreatedAt: d.CreatedAt}
}
