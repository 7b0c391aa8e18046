package envelope

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
	"github.com/onionkeep/onionkeep/internal/server/devices"
	"github.com/onionkeep/onionkeep/internal/server/identity"
	"github.com/onionkeep/onionkeep/internal/server/storage"
)

type noopPurger struct{}

func (noopPurger) PurgeDevice(ctx context.Context, deviceID string) error { return nil }

func newTestCodec(t *testing.T) (*Codec, *devices.Service) {
	t.Helper()

	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	store := storage.NewMemoryStorage()

	id, err := identity.LoadOrGenerate(context.Background(), store, log)
	require.NoError(t, err)

	svc := devices.NewService(devices.NewStorageRepository(store), id, noopPurger{}, lockx.NewKeyedRWMutex(), log)
	return NewCodec(svc, log), svc
}

func pairDevice(t *testing.T, svc *devices.Service, name string) string {
	t.Helper()
	_, pub, err := cryptox.GenerateKeyPair()
	require.NoError(t, err)
	reg, err := svc.Register(context.Background(), pub, name)
	require.NoError(t, err)
	return reg.Device.ID
}

func TestSealOpen_RoundTrip(t *testing.T) {
	codec, svc := newTestCodec(t)
	ctx := context.Background()

	deviceID := pairDevice(t, svc, "laptop")
	plaintext := []byte(`{"op":"list"}`)

	env, err := codec.Seal(ctx, deviceID, plaintext)
	require.NoError(t, err)
	assert.Equal(t, deviceID, env.DeviceID)
	assert.Len(t, env.Nonce, cryptox.NonceSize)

	got, err := codec.Open(ctx, env)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestOpen_TamperedCiphertext(t *testing.T) {
	codec, svc := newTestCodec(t)
	ctx := context.Background()

	deviceID := pairDevice(t, svc, "laptop")
	env, err := codec.Seal(ctx, deviceID, []byte("payload"))
	require.NoError(t, err)

	env.Ciphertext[0] ^= 0xff
	_, err = codec.Open(ctx, env)
	assert.ErrorIs(t, err, common.ErrAuthenticationFailed)
}

func TestOpen_CrossDeviceReplayFails(t *testing.T) {
	codec, svc := newTestCodec(t)
	ctx := context.Background()

	a := pairDevice(t, svc, "a")
	b := pairDevice(t, svc, "b")

	env, err := codec.Seal(ctx, a, []byte("payload"))
	require.NoError(t, err)

	// readdress the intercepted envelope to another device
	env.DeviceID = b
	_, err = codec.Open(ctx, env)
	assert.ErrorIs(t, err, common.ErrAuthenticationFailed)
}

func TestOpen_UnknownAndRevokedDevicesIndistinguishable(t *testing.T) {
	codec, svc := newTestCodec(t)
	ctx := context.Background()

	deviceID := pairDevice(t, svc, "laptop")
	env, err := codec.Seal(ctx, deviceID, []byte("payload"))
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, deviceID))
	_, errRevoked := codec.Open(ctx, env)

	_, errUnknown := codec.Open(ctx, &Envelope{
		DeviceID:   "11111111-2222-3333-4444-555555555555",
		Nonce:      env.Nonce,
		Ciphertext: env.Ciphertext,
	})

	assert.ErrorIs(t, errRevoked, common.ErrAuthenticationFailed)
	assert.ErrorIs(t, errUnknown, common.ErrAuthenticationFailed)
	// identical error values; nothing distinguishes the two cases
	assert.Equal(t, errRevoked, errUnknown)
}

func TestSeal_FreshNoncePerMessage(t *testing.T) {
	codec, svc := newTestCodec(t)
	ctx := context.Background()

	deviceID := pairDevice(t, svc, "laptop")

	e1, err := codec.Seal(ctx, deviceID, []byte("same"))
	require.NoError(t, err)
	e2, err := codec.Seal(ctx, deviceID, []byte("same"))
	require.NoError(t, err)

	assert.NotEqual(t, e1.Nonce, e2.Nonce)
	assert.NotEqual(t, e1.Ciphertext, e2.Ciphertext)
}

func TestOpen_MissingDeviceID(t *testing.T) {
	codec, _ := newTestCodec(t)

	_, err := codec.Open(context.Background(), &Envelope{})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}
