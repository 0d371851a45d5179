// Package admin guards machine-to-machine endpoints with a shared token.
package admin

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	dErrors "vozsegura/pkg/domain-errors"
	"vozsegura/pkg/platform/httputil"
	"vozsegura/pkg/requestcontext"
)

// GatewayTokenHeader carries the identity gateway's shared secret.
const GatewayTokenHeader = "X-Gateway-Token"

// RequireGatewayToken admits requests carrying the expected gateway token. An
// empty expected token rejects every request.
func RequireGatewayToken(expectedToken string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(GatewayTokenHeader)
			if expectedToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
				ctx := r.Context()
				logger.WarnContext(ctx, "gateway token mismatch",
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "gateway token required"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
