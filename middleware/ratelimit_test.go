package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	goRateLimit "github.com/MrEthical07/goRateLimit"
	"github.com/MrEthical07/goRateLimit/jwt"
	"github.com/MrEthical07/goRateLimit/store"
	gjwt "github.com/golang-jwt/jwt/v5"
)

type recordingEvaluator struct {
	requests []goRateLimit.Request
	outcome  goRateLimit.Outcome
}

func (e *recordingEvaluator) Evaluate(_ context.Context, req goRateLimit.Request) goRateLimit.Outcome {
	e.requests = append(e.requests, req)
	return e.outcome
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		if _, ok := OutcomeFromContext(r.Context()); !ok {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
}

func newEngine(t *testing.T, limit int64) *goRateLimit.Engine {
	t.Helper()

	cfg := goRateLimit.DefaultConfig()
	cfg.Policy.Tiers = []goRateLimit.Tier{{Limit: limit, PeriodTime: 1, PeriodTimeUnit: goRateLimit.Hours}}
	engine, err := goRateLimit.New().
		WithConfig(cfg).
		WithStore(store.NewMemoryStore()).
		WithLogger(goRateLimit.NopLogger{}).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func TestRateLimitAdmitsThenRejectsWithJSONBody(t *testing.T) {
	engine := newEngine(t, 2)
	var called bool
	h := RateLimit(engine, Options{APIID: "api"})(okHandler(&called))

	for i := 0; i < 2; i++ {
		called = false
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/orders", nil))
		if rr.Code != http.StatusOK || !called {
			t.Fatalf("request %d: expected pass-through, got %d", i, rr.Code)
		}
		if rr.Header().Get("X-Rate-Limit-Limit") != "2" {
			t.Fatalf("request %d: expected limit header, got %v", i, rr.Header())
		}
	}

	called = false
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/orders", nil))
	if called {
		t.Fatal("expected next handler not to run on rejection")
	}
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected JSON content type, got %q", ct)
	}
	if rr.Header().Get("X-Rate-Limit-Remaining") != "0" {
		t.Fatalf("expected remaining 0, got %v", rr.Header())
	}

	var body errorBody
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.HTTPStatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected http_status_code 429, got %d", body.HTTPStatusCode)
	}
	if body.Message != "Rate limit exceeded ! You reach the limit fixed to 2 requests per 1 hours" {
		t.Fatalf("unexpected message %q", body.Message)
	}
}

func TestRateLimitNilEngineAnswers500(t *testing.T) {
	var called bool
	h := RateLimit(nil, Options{APIID: "api"})(okHandler(&called))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if called || rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 without calling next, got %d", rr.Code)
	}
}

func TestRateLimitResolvesAnonymousApplication(t *testing.T) {
	ev := &recordingEvaluator{outcome: goRateLimit.Outcome{Decision: goRateLimit.Admit, ExceededTier: -1}}
	var called bool
	h := RateLimit(ev, Options{APIID: "api"})(okHandler(&called))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/1", nil))

	if len(ev.requests) != 1 {
		t.Fatalf("expected one evaluation, got %d", len(ev.requests))
	}
	got := ev.requests[0]
	if got.APIID != "api" || got.ApplicationID != AnonymousApplication || got.Path != "/items/1" {
		t.Fatalf("unexpected request %+v", got)
	}
	if !got.Now.IsZero() {
		t.Fatal("expected the engine clock to supply the timestamp")
	}
}

func TestRateLimitResolvesAPIKeyApplication(t *testing.T) {
	ev := &recordingEvaluator{outcome: goRateLimit.Outcome{Decision: goRateLimit.Admit, ExceededTier: -1}}
	var called bool
	h := RateLimit(ev, Options{
		APIID:   "api",
		APIKeys: map[string]string{"key-123": "app-7"},
		Path:    func(*http.Request) string { return "/fixed" },
	})(okHandler(&called))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(DefaultAPIKeyHeader, "key-123")
	h.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(DefaultAPIKeyHeader, "unknown")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if ev.requests[0].ApplicationID != "app-7" || ev.requests[0].Path != "/fixed" {
		t.Fatalf("unexpected first request %+v", ev.requests[0])
	}
	if ev.requests[1].ApplicationID != AnonymousApplication {
		t.Fatalf("expected unknown key to fall back, got %+v", ev.requests[1])
	}
}

func TestRateLimitResolvesBearerClient(t *testing.T) {
	secret := []byte("secret-secret-secret-secret")
	verifier, err := jwt.NewVerifier(jwt.Config{SigningMethod: jwt.MethodHS256, Secret: secret})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	token, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, jwt.ClientClaims{
		AuthorizedParty: "mobile-app",
		RegisteredClaims: gjwt.RegisteredClaims{
			ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}).SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	ev := &recordingEvaluator{outcome: goRateLimit.Outcome{Decision: goRateLimit.Admit, ExceededTier: -1}}
	var called bool
	h := RateLimit(ev, Options{
		APIID:    "api",
		Verifier: verifier,
		APIKeys:  map[string]string{"key-123": "app-7"},
	})(okHandler(&called))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(DefaultAPIKeyHeader, "key-123")
	h.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	req.Header.Set(DefaultAPIKeyHeader, "key-123")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if ev.requests[0].ApplicationID != "mobile-app" {
		t.Fatalf("expected token client to win, got %+v", ev.requests[0])
	}
	if ev.requests[1].ApplicationID != "app-7" {
		t.Fatalf("expected invalid token to fall back to API key, got %+v", ev.requests[1])
	}
}

func TestRateLimitCopiesSuffixedHeadersInOrder(t *testing.T) {
	ev := &recordingEvaluator{outcome: goRateLimit.Outcome{
		Decision:     goRateLimit.Admit,
		ExceededTier: -1,
		Headers: []goRateLimit.Header{
			{Name: "X-Rate-Limit-Limit-0", Value: "10"},
			{Name: "X-Rate-Limit-Remaining-0", Value: "9"},
			{Name: "X-Rate-Limit-Reset-0", Value: "1709298000"},
			{Name: "X-Rate-Limit-Limit-1", Value: "100"},
		},
	}}
	var called bool
	h := RateLimit(ev, Options{APIID: "api"})(okHandler(&called))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Header().Get("X-Rate-Limit-Remaining-0") != "9" || rr.Header().Get("X-Rate-Limit-Limit-1") != "100" {
		t.Fatalf("unexpected headers %v", rr.Header())
	}
}

func TestRateLimitStoreFaultAnswers500(t *testing.T) {
	ev := &recordingEvaluator{outcome: goRateLimit.Outcome{
		Decision:     goRateLimit.Reject,
		ExceededTier: -1,
		Result: goRateLimit.Result{
			Failure:    true,
			StatusCode: http.StatusInternalServerError,
			Message:    "Rate-limit repository is unavailable.",
		},
		Err: goRateLimit.ErrStoreUnavailable,
	}}
	var called bool
	h := RateLimit(ev, Options{APIID: "api"})(okHandler(&called))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if called || rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 without calling next, got %d", rr.Code)
	}
}
