package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vozsegura/internal/identity/pseudonym"
	"vozsegura/internal/identity/service"
	"vozsegura/internal/identity/store/handle"
	"vozsegura/pkg/platform/audit/recorder"
	auditmemory "vozsegura/pkg/platform/audit/store/memory"
	txcontext "vozsegura/pkg/platform/tx"
)

func newIdentityRouter(t *testing.T) (http.Handler, *auditmemory.InMemoryStore) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	auditStore := auditmemory.NewInMemoryStore()
	svc := service.New(handle.NewInMemoryHandleStore(), recorder.New(auditStore), txcontext.NewMemoryRunner(),
		service.WithLogger(logger))

	r := chi.NewRouter()
	New(svc, logger).Register(r)
	return r, auditStore
}

func post(t *testing.T, router http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/internal/identities", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRegister_ReturnsPseudonymousHandle(t *testing.T) {
	router, auditStore := newIdentityRouter(t)

	rec := post(t, router, `{"document_number":"1712345678","approved":true,"liveness_passed":true,"provider":"registro-civil"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp RegisterResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	want, err := pseudonym.Hash("1712345678")
	require.NoError(t, err)
	assert.Equal(t, want.String(), resp.IdentityHandle)

	events, err := auditStore.ListAll(t.Context())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.NotContains(t, events[0].Details, "1712345678")
	assert.NotContains(t, events[0].Actor, "1712345678")
}

func TestRegister_RejectsUnapprovedVerification(t *testing.T) {
	router, auditStore := newIdentityRouter(t)

	rec := post(t, router, `{"document_number":"1712345678","approved":true,"liveness_passed":false}`)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NotContains(t, rec.Body.String(), "1712345678")
	events, err := auditStore.ListAll(t.Context())
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestRegister_ValidatesBody(t *testing.T) {
	router, _ := newIdentityRouter(t)

	for _, body := range []string{
		`{"approved":true,"liveness_passed":true}`,
		`{"document_number":"` + strings.Repeat("9", 65) + `","approved":true,"liveness_passed":true}`,
		`not json`,
	} {
		rec := post(t, router, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}
