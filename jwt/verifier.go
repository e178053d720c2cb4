package jwt

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SigningMethod names the algorithm a Verifier accepts.
type SigningMethod string

const (
	MethodEd25519 SigningMethod = "ed25519"
	MethodHS256   SigningMethod = "hs256"
)

// ErrNoClientClaim is returned when a valid token carries neither client_id nor azp.
var ErrNoClientClaim = errors.New("token carries no client identifier")

// Config configures a Verifier.
//
// For HS256, Secret is the shared key. For Ed25519, PublicKey or VerifyKeys
// must be set; with VerifyKeys, tokens must carry a kid header naming one of
// them.
type Config struct {
	SigningMethod SigningMethod
	Secret        []byte
	PublicKey     []byte
	VerifyKeys    map[string][]byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
}

// ClientClaims is the subset of an OAuth2 access token a rate limiter needs.
type ClientClaims struct {
	ClientID        string `json:"client_id,omitempty"`
	AuthorizedParty string `json:"azp,omitempty"`
	jwt.RegisteredClaims
}

// ApplicationID returns client_id, falling back to azp.
func (c *ClientClaims) ApplicationID() string {
	if c == nil {
		return ""
	}
	if c.ClientID != "" {
		return c.ClientID
	}
	return c.AuthorizedParty
}

// Verifier checks signatures and registered claims of incoming tokens.
type Verifier struct {
	config Config
	method jwt.SigningMethod
}

// NewVerifier validates cfg and returns a Verifier.
func NewVerifier(cfg Config) (*Verifier, error) {
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}

	v := &Verifier{config: cfg}
	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.Secret) == 0 && len(cfg.VerifyKeys) == 0 {
			return nil, errors.New("hs256 requires a secret or verify key set")
		}
		v.method = jwt.SigningMethodHS256
	case MethodEd25519:
		if len(cfg.PublicKey) > 0 {
			if _, err := parseEdPublicKey(cfg.PublicKey); err != nil {
				return nil, err
			}
		}
		if len(cfg.VerifyKeys) == 0 && len(cfg.PublicKey) == 0 {
			return nil, errors.New("ed25519 requires public key or verify key set")
		}
		v.method = jwt.SigningMethodEdDSA
	default:
		return nil, errors.New("unsupported signing method")
	}

	for kid, key := range cfg.VerifyKeys {
		if strings.TrimSpace(kid) == "" {
			return nil, errors.New("verify key map contains empty kid")
		}
		if _, err := v.verifyKey(key); err != nil {
			return nil, fmt.Errorf("invalid verify key for kid %q: %w", kid, err)
		}
	}

	return v, nil
}

// Parse verifies tokenStr and returns its claims.
func (v *Verifier) Parse(tokenStr string) (*ClientClaims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{v.method.Alg()}),
	}
	if v.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(v.config.Leeway))
	}
	if v.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(v.config.Issuer))
	}
	if v.config.Audience != "" {
		options = append(options, jwt.WithAudience(v.config.Audience))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &ClientClaims{}, func(t *jwt.Token) (interface{}, error) {
		if len(v.config.VerifyKeys) > 0 {
			kid, _ := t.Header["kid"].(string)
			if kid == "" {
				return nil, errors.New("missing kid")
			}
			key, ok := v.config.VerifyKeys[kid]
			if !ok {
				return nil, errors.New("unknown kid")
			}
			return v.verifyKey(key)
		}
		if v.method == jwt.SigningMethodHS256 {
			return v.config.Secret, nil
		}
		return parseEdPublicKey(v.config.PublicKey)
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*ClientClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// ApplicationID verifies tokenStr and returns the application it was issued to.
func (v *Verifier) ApplicationID(tokenStr string) (string, error) {
	claims, err := v.Parse(tokenStr)
	if err != nil {
		return "", err
	}
	id := claims.ApplicationID()
	if id == "" {
		return "", ErrNoClientClaim
	}
	return id, nil
}

func (v *Verifier) verifyKey(key []byte) (interface{}, error) {
	if v.method == jwt.SigningMethodHS256 {
		if len(key) == 0 {
			return nil, errors.New("empty hs256 key")
		}
		return key, nil
	}
	return parseEdPublicKey(key)
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
