package middleware

import (
	"net/http"

	"github.com/dskvich/chatgpt-slack-bridge/pkg/api/response"
)

type Authenticator interface {
	IsAuthorized(key string) bool
}

const apiKeyHeader = "X-API-Key"

// APIKeyAuth rejects requests whose X-API-Key header does not match the
// configured key.
func APIKeyAuth(authenticator Authenticator) func(http.Handler) http.Handler {
	writer := response.JSONResponseWriter{}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !authenticator.IsAuthorized(r.Header.Get(apiKeyHeader)) {
				writer.WriteErrorResponse(w, http.StatusUnauthorized, "missing or invalid API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
