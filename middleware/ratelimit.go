package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	goRateLimit "github.com/MrEthical07/goRateLimit"
	"github.com/MrEthical07/goRateLimit/jwt"
)

// Evaluator makes admission decisions. *goRateLimit.Engine satisfies it.
type Evaluator interface {
	Evaluate(ctx context.Context, req goRateLimit.Request) goRateLimit.Outcome
}

// Options configures RateLimit.
type Options struct {
	// APIID identifies the protected API in counter keys.
	APIID string
	// Verifier, when set, resolves the application from a bearer token's
	// client_id or azp claim.
	Verifier *jwt.Verifier
	// APIKeyHeader overrides DefaultAPIKeyHeader.
	APIKeyHeader string
	// APIKeys maps API keys to application ids.
	APIKeys map[string]string
	// DefaultApplication overrides AnonymousApplication.
	DefaultApplication string
	// Path extracts the resolved path. Defaults to r.URL.Path.
	Path func(r *http.Request) string
}

type outcomeContextKey struct{}

// OutcomeFromContext returns the admission outcome of an admitted request.
func OutcomeFromContext(ctx context.Context) (goRateLimit.Outcome, bool) {
	out, ok := ctx.Value(outcomeContextKey{}).(goRateLimit.Outcome)
	return out, ok
}

type errorBody struct {
	Message        string `json:"message"`
	HTTPStatusCode int    `json:"http_status_code"`
}

// RateLimit admits or rejects each request through engine.
func RateLimit(engine Evaluator, opts Options) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				writeRejection(w, http.StatusInternalServerError, "No rate-limit repository has been configured.")
				return
			}

			path := r.URL.Path
			if opts.Path != nil {
				path = opts.Path(r)
			}

			out := engine.Evaluate(r.Context(), goRateLimit.Request{
				APIID:         opts.APIID,
				ApplicationID: opts.applicationID(r),
				Path:          path,
			})

			for _, h := range out.Headers {
				w.Header().Add(h.Name, h.Value)
			}

			if !out.Admitted() {
				writeRejection(w, out.Result.StatusCode, out.Result.Message)
				return
			}

			ctx := context.WithValue(r.Context(), outcomeContextKey{}, out)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeRejection(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{
		Message:        message,
		HTTPStatusCode: status,
	})
}
