package auth

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the identity payload embedded in a session token.
type Claims struct {
	jwt.RegisteredClaims
	Username string   `json:"username"`
	RealName string   `json:"realName"`
	RoleIDs  []string `json:"roleIds"`
}

// DefaultTokenTTL is used when the configured expiry string cannot be parsed.
const DefaultTokenTTL = 24 * time.Hour

// TokenService issues and verifies HMAC-signed session tokens. The secret
// and TTL are fixed at startup.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a token service from the configured signing secret
// and expiry string (e.g. "24h", "30m", "7d").
func NewTokenService(secret, expiresIn string) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    ParseExpiry(expiresIn),
	}
}

// ParseExpiry converts a "<int><unit>" duration string into a time.Duration.
// Supported units are s, m, h, and d. Unrecognized input falls back to the
// 24h default.
func ParseExpiry(s string) time.Duration {
	if len(s) < 2 {
		return DefaultTokenTTL
	}

	value, err := strconv.Atoi(s[:len(s)-1])
	if err != nil {
		return DefaultTokenTTL
	}

	switch s[len(s)-1] {
	case 's':
		return time.Duration(value) * time.Second
	case 'm':
		return time.Duration(value) * time.Minute
	case 'h':
		return time.Duration(value) * time.Hour
	case 'd':
		return time.Duration(value) * 24 * time.Hour
	default:
		return DefaultTokenTTL
	}
}

// TTL returns the configured token lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs the claims into a token, stamping issued-at and expiry from
// the configured TTL.
func (s *TokenService) Issue(claims Claims) (string, error) {
	now := time.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ErrInvalidToken is returned by Verify for any malformed, tampered, or
// expired token. The reasons are deliberately not distinguished.
var ErrInvalidToken = fmt.Errorf("invalid token")

// Verify checks the signature and expiry and returns the embedded claims.
func (s *TokenService) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))

	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Decode parses the claims without verifying the signature. Only for
// non-trust-sensitive introspection; returns nil on any parse failure.
func (s *TokenService) Decode(tokenStr string) *Claims {
	claims := &Claims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenStr, claims); err != nil {
		return nil
	}
	return claims
}

// ExtractFromHeader pulls the token out of an Authorization header. The
// header must be exactly "Bearer <token>"; anything else yields "".
func ExtractFromHeader(header string) string {
	if header == "" {
		return ""
	}

	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
