package auth

import "crypto/subtle"

type apiKeyAuthenticator struct {
	key string
}

func NewAPIKeyAuthenticator(key string) *apiKeyAuthenticator {
	return &apiKeyAuthenticator{key: key}
}

// IsAuthorized reports whether the presented key matches the configured one.
// Comparison is constant-time.
func (a *apiKeyAuthenticator) IsAuthorized(key string) bool {
	if a.key == "" || key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a.key), []byte(key)) == 1
}
