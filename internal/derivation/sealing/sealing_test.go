package sealing

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "vozsegura/pkg/domain"
)

var masterKey = bytes.Repeat([]byte{0x42}, 32)

func TestSealOpenRoundTrip(t *testing.T) {
	sealer := New()
	trackingID := id.NewTrackingID()
	plain := []byte(`{"narrative":"irregular procurement in district 4"}`)

	sealed, err := sealer.Seal(masterKey, "payload-master", trackingID, "FISCALIA", plain)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sealed.KeyID, "payload-master:"))
	assert.False(t, bytes.Contains(sealed.Ciphertext, []byte("procurement")))

	opened, err := sealer.Open(masterKey, trackingID, "FISCALIA", sealed.Ciphertext)
	require.NoError(t, err)
	assert.Equal(t, plain, opened)
}

func TestSealedPayloadIsBoundToDestinationAndComplaint(t *testing.T) {
	sealer := New()
	trackingID := id.NewTrackingID()
	sealed, err := sealer.Seal(masterKey, "k", trackingID, "FISCALIA", []byte("body"))
	require.NoError(t, err)

	_, err = sealer.Open(masterKey, trackingID, "DEFAULT_QUEUE", sealed.Ciphertext)
	assert.Error(t, err, "another destination cannot open it")

	_, err = sealer.Open(masterKey, id.NewTrackingID(), "FISCALIA", sealed.Ciphertext)
	assert.Error(t, err, "another complaint cannot claim it")

	tampered := append([]byte(nil), sealed.Ciphertext...)
	tampered[len(tampered)-1] ^= 0xff
	_, err = sealer.Open(masterKey, trackingID, "FISCALIA", tampered)
	assert.Error(t, err)
}

func TestSealUsesFreshNonces(t *testing.T) {
	sealer := New()
	trackingID := id.NewTrackingID()
	a, err := sealer.Seal(masterKey, "k", trackingID, "FISCALIA", []byte("same"))
	require.NoError(t, err)
	b, err := sealer.Seal(masterKey, "k", trackingID, "FISCALIA", []byte("same"))
	require.NoError(t, err)
	assert.NotEqual(t, a.Ciphertext, b.Ciphertext)
	assert.Equal(t, a.KeyID, b.KeyID)
}

func TestSealRejectsBadInput(t *testing.T) {
	sealer := New()
	_, err := sealer.Seal([]byte("short"), "k", id.NewTrackingID(), "FISCALIA", []byte("x"))
	assert.True(t, errors.Is(err, ErrInvalidKey))

	_, err = sealer.Open(masterKey, id.NewTrackingID(), "FISCALIA", []byte{formatVersion, 1, 2})
	assert.True(t, errors.Is(err, ErrMalformed))

	failing := New(WithRandom(bytes.NewReader(nil)))
	_, err = failing.Seal(masterKey, "k", id.NewTrackingID(), "FISCALIA", []byte("x"))
	assert.Error(t, err)
}

func TestKeyIDDistinguishesKeys(t *testing.T) {
	other := bytes.Repeat([]byte{0x43}, 32)
	assert.NotEqual(t, KeyID("k", masterKey), KeyID("k", other))
	assert.Equal(t, KeyID("k", masterKey), KeyID("k", masterKey))
}
