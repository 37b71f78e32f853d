package auth

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenValidity is how long an issued token stays valid.
const TokenValidity = 7 * 24 * time.Hour

// Claims is the decoded token payload. Numbers recovered by VerifyToken are
// json.Number values.
type Claims map[string]any

// Identity is the user a verified token speaks for.
type Identity struct {
	UserID int64
	Email  string
}

// Identity extracts the userId and email claims.
func (c Claims) Identity() (Identity, error) {
	var id Identity
	switch v := c["userId"].(type) {
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return Identity{}, ErrVerificationFailed
		}
		id.UserID = n
	case float64:
		if v != math.Trunc(v) || math.Abs(v) > 1<<53 {
			return Identity{}, ErrVerificationFailed
		}
		id.UserID = int64(v)
	case int64:
		id.UserID = v
	case int:
		id.UserID = int64(v)
	default:
		return Identity{}, ErrVerificationFailed
	}
	email, ok := c["email"].(string)
	if !ok {
		return Identity{}, ErrVerificationFailed
	}
	id.Email = email
	return id, nil
}

// TokenService signs and verifies HS256 bearer tokens. It keeps no state
// besides its clock; secrets are passed on every call.
type TokenService struct {
	now    func() time.Time
	parser *jwt.Parser
}

// TokenOption configures a TokenService.
type TokenOption func(*TokenService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		s.now = now
	}
}

// NewTokenService returns a service using time.Now unless a clock option
// says otherwise.
func NewTokenService(opts ...TokenOption) *TokenService {
	s := &TokenService{
		now:    time.Now,
		parser: jwt.NewParser(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var defaultTokens = NewTokenService()

// CreateToken signs claims with secret using the default clock.
func CreateToken(claims Claims, secret string) (string, error) {
	return defaultTokens.Create(claims, secret)
}

// VerifyToken checks token against secret using the default clock.
func VerifyToken(token, secret string) (Claims, error) {
	return defaultTokens.Verify(token, secret)
}

// Create copies claims, stamps iat and exp, and returns the signed token.
func (s *TokenService) Create(claims Claims, secret string) (string, error) {
	if secret == "" {
		return "", ErrServerMisconfigured
	}

	now := s.now().Unix()
	payload := make(jwt.MapClaims, len(claims)+2)
	for k, v := range claims {
		payload[k] = v
	}
	payload["iat"] = now
	payload["exp"] = now + int64(TokenValidity/time.Second)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, payload).SignedString([]byte(secret))
	if err != nil {
		if errors.Is(err, jwt.ErrHashUnavailable) {
			return "", environmentError(ErrCryptoUnavailable, err)
		}
		return "", err
	}
	return signed, nil
}

// Verify checks structure, signature and expiry, in that order, and returns
// the full claim set.
func (s *TokenService) Verify(token, secret string) (Claims, error) {
	if secret == "" {
		return nil, ErrServerMisconfigured
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, ErrMalformedToken
	}

	sig, err := base64.RawURLEncoding.Strict().DecodeString(parts[2])
	if err != nil {
		return nil, ErrInvalidSignature
	}
	signingInput := parts[0] + "." + parts[1]
	if err := jwt.SigningMethodHS256.Verify(signingInput, sig, []byte(secret)); err != nil {
		if errors.Is(err, jwt.ErrHashUnavailable) {
			return nil, environmentError(ErrCryptoUnavailable, err)
		}
		return nil, ErrInvalidSignature
	}

	raw, err := s.parser.DecodeSegment(parts[1])
	if err != nil {
		return nil, ErrVerificationFailed
	}
	var claims jwt.MapClaims
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&claims); err != nil || claims == nil {
		return nil, ErrVerificationFailed
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, ErrVerificationFailed
	}
	if exp != nil && exp.Unix() < s.now().Unix() {
		return nil, ErrTokenExpired
	}

	return Claims(claims), nil
}
