// Package identity manages the server's long-term X25519 keypair. It is
// generated once on first boot, persisted, and loaded on every subsequent
// start; regenerating it would invalidate every paired device's shared
// secret, so a corrupt record is an error rather than a trigger to re-key.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/onionkeep/onionkeep/internal/common"
	"github.com/onionkeep/onionkeep/internal/cryptox"
	"github.com/onionkeep/onionkeep/internal/logging"
	"github.com/onionkeep/onionkeep/internal/server/storage"
)

const storageKey = "server:identity"

// Identity is the process-wide server keypair.
type Identity struct {
	PrivateKey []byte    `json:"private_key"`
	PublicKey  []byte    `json:"public_key"`
	CreatedAt  time.Time `json:"created_at"`
}

// LoadOrGenerate returns the persisted identity, creating and persisting a
// new one only when none exists yet.
func LoadOrGenerate(ctx context.Context, store storage.Storage, log logging.Logger) (*Identity, error) {
	blob, err := store.Get(ctx, storageKey)
	if err == nil {
		id := &Identity{}
		if err := json.Unmarshal(blob, id); err != nil {
			return nil, fmt.Errorf("corrupt server identity record: %w", err)
		}
		if len(id.PrivateKey) != cryptox.KeySize || len(id.PublicKey) != cryptox.KeySize {
			return nil, errors.New("corrupt server identity record: bad key size")
		}
		log.Debug(ctx, "loaded server identity")
		return id, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	log.Info(ctx, "generating new server identity")

	priv, pub, err := cryptox.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	id := &Identity{
		PrivateKey: priv,
		PublicKey:  pub,
		CreatedAt:  time.Now().UTC(),
	}

	blob, err = json.Marshal(id)
	if err != nil {
		return nil, fmt.Errorf("error serializing server identity: %w", err)
	}
	if err := store.Set(ctx, storageKey, blob); err != nil {
		return nil, err
	}
	return id, nil
}
