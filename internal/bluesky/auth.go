package bluesky

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/blackmichael/skygazer/internal/domain"
	"github.com/blackmichael/skygazer/internal/lexicon"
)

// refreshLeeway is how close to expiry an access token is refreshed before
// use.
const refreshLeeway = time.Minute

// tokenExpiry reads the exp claim without verifying the signature. The PDS
// verifies tokens; the client only needs to know when to refresh.
func tokenExpiry(token string) (time.Time, bool) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	var claims jwt.RegisteredClaims
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// ensureFresh refreshes the session when the access token is about to
// expire.
func (c *Client) ensureFresh(ctx context.Context) error {
	s := c.tokens()
	if s.accessJwt == "" {
		return fmt.Errorf("not authenticated: call Login first: %w", domain.ErrAuth)
	}
	exp, ok := tokenExpiry(s.accessJwt)
	if !ok || exp.Sub(c.now()) > refreshLeeway {
		return nil
	}
	return c.refresh(ctx, s.refreshJwt, "expiry")
}

// refresh exchanges prior for a new token pair. Concurrent callers that
// saw the same prior token share one refresh.
func (c *Client) refresh(ctx context.Context, prior, trigger string) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if c.tokens().refreshJwt != prior {
		return nil
	}
	if prior == "" {
		return fmt.Errorf("refresh session: no refresh token: %w", domain.ErrAuth)
	}

	status, body, err := c.send(ctx, http.MethodPost, nsidRefreshSession, nil, nil, prior)
	if err != nil {
		return fmt.Errorf("refresh session: %w", err)
	}
	if status < 200 || status >= 300 {
		apiErr := decodeAPIError(status, body)
		// any refresh rejection means the session is gone
		return fmt.Errorf("refresh session: %w: %w", domain.ErrAuth, apiErr)
	}

	var out lexicon.SessionOutput
	if err := unmarshal(body, &out); err != nil {
		return fmt.Errorf("refresh session: %w", err)
	}

	c.mu.Lock()
	c.session.accessJwt = out.AccessJwt
	c.session.refreshJwt = out.RefreshJwt
	if out.Handle != "" {
		c.session.handle = out.Handle
	}
	c.mu.Unlock()

	sessionRefreshes.WithLabelValues(trigger).Inc()
	c.logger.Debug("refreshed session", "did", out.DID, "trigger", trigger)
	return nil
}
