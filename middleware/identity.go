package middleware

import (
	"net/http"
	"strings"
)

// AnonymousApplication is the application id used when a request carries no
// usable identity.
const AnonymousApplication = "1"

// DefaultAPIKeyHeader is the header inspected for an API key.
const DefaultAPIKeyHeader = "X-Gravitee-Api-Key"

// applicationID resolves the consumer application of r.
func (o *Options) applicationID(r *http.Request) string {
	if o.Verifier != nil {
		if token, ok := bearerToken(r.Header.Get("Authorization")); ok {
			if id, err := o.Verifier.ApplicationID(token); err == nil {
				return id
			}
		}
	}

	if key := strings.TrimSpace(r.Header.Get(o.apiKeyHeader())); key != "" {
		if id, ok := o.APIKeys[key]; ok {
			return id
		}
	}

	if o.DefaultApplication != "" {
		return o.DefaultApplication
	}
	return AnonymousApplication
}

func (o *Options) apiKeyHeader() string {
	if o.APIKeyHeader != "" {
		return o.APIKeyHeader
	}
	return DefaultAPIKeyHeader
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
