package auth

import (
	"fmt"
	"strings"
)

const bearerPrefix = "Bearer "

// Guard authenticates the Authorization header of a protected request.
type Guard struct {
	secret string
	tokens *TokenService
}

// NewGuard returns a guard that verifies tokens against secret. A nil
// tokens uses the default clock.
func NewGuard(secret string, tokens *TokenService) *Guard {
	if tokens == nil {
		tokens = defaultTokens
	}
	return &Guard{secret: secret, tokens: tokens}
}

// Authenticate turns an Authorization header value into the identity the
// token was issued for. The claim is trusted as issued; nothing is looked up.
func (g *Guard) Authenticate(authorization string) (Identity, error) {
	if !strings.HasPrefix(authorization, bearerPrefix) {
		return Identity{}, ErrMissingCredentials
	}
	if g.secret == "" {
		return Identity{}, ErrServerMisconfigured
	}

	claims, err := g.tokens.Verify(authorization[len(bearerPrefix):], g.secret)
	if err != nil {
		if IsEnvironmentError(err) {
			return Identity{}, err
		}
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidOrExpiredToken, err)
	}

	id, err := claims.Identity()
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidOrExpiredToken, err)
	}
	return id, nil
}
