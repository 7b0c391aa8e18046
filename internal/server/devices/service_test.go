package devices

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onionkeep/onionkeep/internal/common"
	"github.com/onionkeep/onionkeep/internal/cryptox"
	"github.com/onionkeep/onionkeep/internal/lockx"
	"github.com/onionkeep/onionkeep/internal/logging"
	"github.com/onionkeep/onionkeep/internal/server/identity"
	"github.com/onionkeep/onionkeep/internal/server/storage"
)

type purgerSpy struct {
	purged []string
}

func (p *purgerSpy) PurgeDevice(ctx context.Context, deviceID string) error {
	p.purged = append(p.purged, deviceID)
	return nil
}

func newTestService(t *testing.T) (*Service, *purgerSpy, *identity.Identity) {
	t.Helper()

	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	store := storage.NewMemoryStorage()

	id, err := identity.LoadOrGenerate(context.Background(), store, log)
	require.NoError(t, err)

	purger := &purgerSpy{}
	svc := NewService(NewStorageRepository(store), id, purger, lockx.NewKeyedRWMutex(), log)
	return svc, purger, id
}

func TestRegister_DerivesSameSecretAsClient(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	clientPriv, clientPub, err := cryptox.GenerateKeyPair()
	require.NoError(t, err)

	reg, err := svc.Register(ctx, clientPub, "laptop")
	require.NoError(t, err)
	require.NotEmpty(t, reg.Device.ID)
	require.NotEmpty(t, reg.VerificationCode)

	// the client computes the secret independently from the server public key
	clientSecret, err := cryptox.SharedSecret(clientPriv, reg.ServerPublicKey)
	require.NoError(t, err)
	assert.Equal(t, reg.Device.SharedSecret, clientSecret)
}

func TestRegister_RejectsMalformedKeyAndEmptyName(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, []byte("short"), "laptop")
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = svc.Register(ctx, make([]byte, cryptox.KeySize), "laptop")
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, clientPub, err := cryptox.GenerateKeyPair()
	require.NoError(t, err)
	_, err = svc.Register(ctx, clientPub, "")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestRegister_SamePublicKeyYieldsNewIdentity(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, clientPub, err := cryptox.GenerateKeyPair()
	require.NoError(t, err)

	first, err := svc.Register(ctx, clientPub, "laptop")
	require.NoError(t, err)
	second, err := svc.Register(ctx, clientPub, "laptop")
	require.NoError(t, err)

	assert.NotEqual(t, first.Device.ID, second.Device.ID)
}

func TestLookup_UnknownDevice(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Lookup(context.Background(), "never-registered")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestRename(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, clientPub, err := cryptox.GenerateKeyPair()
	require.NoError(t, err)
	reg, err := svc.Register(ctx, clientPub, "laptop")
	require.NoError(t, err)

	require.NoError(t, svc.Rename(ctx, reg.Device.ID, "workstation"))

	got, err := svc.Lookup(ctx, reg.Device.ID)
	require.NoError(t, err)
	assert.Equal(t, "workstation", got.Name)
	// everything else untouched
	assert.Equal(t, reg.Device.PublicKey, got.PublicKey)
	assert.Equal(t, reg.Device.SharedSecret, got.SharedSecret)

	assert.ErrorIs(t, svc.Rename(ctx, "missing", "x"), common.ErrNotFound)
}

func TestRevoke_PurgesSecretsBeforeDevice(t *testing.T) {
	svc, purger, _ := newTestService(t)
	ctx := context.Background()

	_, clientPub, err := cryptox.GenerateKeyPair()
	require.NoError(t, err)
	reg, err := svc.Register(ctx, clientPub, "laptop")
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, reg.Device.ID))
	assert.Equal(t, []string{reg.Device.ID}, purger.purged)

	_, err = svc.Lookup(ctx, reg.Device.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	// revoking again is a retryable no-op that still purges
	require.NoError(t, svc.Revoke(ctx, reg.Device.ID))
	assert.Len(t, purger.purged, 2)
}

func TestList_ReturnsPublicViewsOnly(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, pub1, err := cryptox.GenerateKeyPair()
	require.NoError(t, err)
	_, pub2, err := cryptox.GenerateKeyPair()
	require.NoError(t, err)

	_, err = svc.Register(ctx, pub1, "laptop")
	require.NoError(t, err)
	_, err = svc.Register(ctx, pub2, "phone")
	require.NoError(t, err)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	names := []string{list[0].Name, list[1].Name}
	assert.ElementsMatch(t, []string{"laptop", "phone"}, names)
}
