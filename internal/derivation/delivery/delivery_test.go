package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "vozsegura/pkg/domain"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(ts *httptest.Server, cfg Config) *Client {
	return New(cfg, WithTransport(ts.Client().Transport), WithLogger(quietLogger()))
}

func envelopeFor(ts *httptest.Server) Envelope {
	return Envelope{
		TrackingID:      id.NewTrackingID(),
		DestinationCode: "FISCALIA",
		Endpoint:        ts.URL + "/intake",
		SealedPayload:   []byte{0x01, 0x02, 0x03},
		KeyID:           "payload-master:abcd",
	}
}

func TestDeliver_SendsEnvelope(t *testing.T) {
	var (
		got        wireEnvelope
		idemKey    string
		contentTyp string
	)
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		idemKey = r.Header.Get("Idempotency-Key")
		contentTyp = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer ts.Close()

	env := envelopeFor(ts)
	err := newTestClient(ts, Config{}).Deliver(context.Background(), env)
	require.NoError(t, err)

	assert.Equal(t, env.TrackingID.String(), idemKey)
	assert.Equal(t, "application/json", contentTyp)
	assert.Equal(t, env.TrackingID.String(), got.TrackingID)
	assert.Equal(t, "FISCALIA", got.DestinationCode)
	assert.Equal(t, env.SealedPayload, got.SealedPayload)
	assert.Equal(t, "payload-master:abcd", got.KeyID)
}

func TestDeliver_ClassifiesStatus(t *testing.T) {
	cases := []struct {
		status    int
		wantKind  Kind
		retryable bool
	}{
		{http.StatusOK, "", false},
		{http.StatusCreated, "", false},
		{http.StatusBadRequest, KindRejected, false},
		{http.StatusUnprocessableEntity, KindRejected, false},
		{http.StatusTooManyRequests, KindServerError, true},
		{http.StatusInternalServerError, KindServerError, true},
		{http.StatusServiceUnavailable, KindServerError, true},
		{http.StatusNoContent, KindMisconfigured, false},
		{http.StatusFound, KindMisconfigured, false},
	}
	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tc.status == http.StatusFound {
					w.Header().Set("Location", "https://elsewhere.example/")
				}
				w.WriteHeader(tc.status)
			}))
			defer ts.Close()

			err := newTestClient(ts, Config{}).Deliver(context.Background(), envelopeFor(ts))
			if tc.wantKind == "" {
				assert.NoError(t, err)
				return
			}
			var derr *Error
			require.True(t, errors.As(err, &derr))
			assert.Equal(t, tc.wantKind, derr.Kind)
			assert.Equal(t, tc.status, derr.StatusCode)
			assert.Equal(t, tc.retryable, derr.Kind.Retryable())
		})
	}
}

func TestDeliver_Timeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer ts.Close()
	defer ts.CloseClientConnections()
	defer close(release)

	err := newTestClient(ts, Config{TotalTimeout: 50 * time.Millisecond}).Deliver(context.Background(), envelopeFor(ts))
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindTimeout, kind)
}

func TestDeliver_NetworkError(t *testing.T) {
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	env := envelopeFor(ts)
	client := newTestClient(ts, Config{ConnectTimeout: time.Second})
	ts.Close()

	kind, ok := KindOf(client.Deliver(context.Background(), env))
	require.True(t, ok)
	assert.Equal(t, KindNetwork, kind)
}

func TestDeliver_RejectsPlainHTTP(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer ts.Close()

	env := envelopeFor(ts)
	kind, ok := KindOf(New(Config{}, WithLogger(quietLogger())).Deliver(context.Background(), env))
	require.True(t, ok)
	assert.Equal(t, KindMisconfigured, kind)
	assert.Zero(t, hits.Load())
}

func TestDeliver_CircuitOpensPerDestination(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	client := newTestClient(ts, Config{BreakerThreshold: 2, BreakerCooldown: time.Hour})
	env := envelopeFor(ts)
	for range 2 {
		kind, _ := KindOf(client.Deliver(context.Background(), env))
		assert.Equal(t, KindServerError, kind)
	}

	kind, _ := KindOf(client.Deliver(context.Background(), env))
	assert.Equal(t, KindCircuitOpen, kind)
	assert.Equal(t, int32(2), hits.Load())

	other := env
	other.DestinationCode = "DEFAULT_QUEUE"
	kind, _ = KindOf(client.Deliver(context.Background(), other))
	assert.Equal(t, KindServerError, kind, "other destinations keep their own circuit")
}
