package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"forkful/internal/domain"
	"forkful/internal/tokenstore"
	"forkful/pkg/requestcontext"
)

const refreshFlightKey = "refresh"

var (
	errNoRefreshToken = errors.New("no refresh token")
	errEmptyAccess    = errors.New("refresh response carried no access token")
)

// refreshAccess returns an access token to retry with after stale was
// rejected. Concurrent callers share one in-flight refresh and all observe the
// token it stored.
func (c *Client) refreshAccess(ctx context.Context, stale string) (string, error) {
	// Only the caller whose function runs leads the flight; the channel
	// receive below orders the write before the read.
	var led bool
	ch := c.refreshGroup.DoChan(refreshFlightKey, func() (any, error) {
		led = true
		// Detached from the first caller so its cancellation does not fail the
		// requests that joined the flight.
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()

		// A flight that finished between our 401 and this call already
		// replaced the token.
		current, err := c.storedToken(rctx, tokenstore.AccessTokenKey)
		if err != nil {
			return nil, err
		}
		if current != "" && current != stale {
			c.metrics.IncRefreshWaiter()
			return current, nil
		}

		token, err := c.refresh(rctx)
		if err != nil {
			// With neither credential stored there is no session to end.
			if current == "" && errors.Is(err, errNoRefreshToken) {
				return nil, err
			}
			c.expireSession(rctx)
			return nil, err
		}
		return token, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		if res.Shared && !led {
			c.metrics.IncRefreshWaiter()
		}
		token, _ := res.Val.(string)
		return token, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// refresh exchanges the stored refresh token for a new access token and
// persists the result. A rotated refresh token is persisted too.
func (c *Client) refresh(ctx context.Context) (string, error) {
	refreshToken, err := c.storedToken(ctx, tokenstore.RefreshTokenKey)
	if err != nil {
		c.metrics.IncRefresh("failure")
		return "", err
	}
	if refreshToken == "" {
		c.metrics.IncRefresh("no_refresh_token")
		return "", errNoRefreshToken
	}

	req := call{
		method:    http.MethodPost,
		path:      refreshPath,
		body:      RefreshRequest{Refresh: refreshToken},
		anonymous: true,
	}
	var pair domain.TokenPair
	if err := c.do(ctx, req, &pair); err != nil {
		c.metrics.IncRefresh("failure")
		return "", fmt.Errorf("refresh access token: %w", err)
	}
	if pair.Access == "" {
		c.metrics.IncRefresh("failure")
		return "", errEmptyAccess
	}

	if err := c.tokens.Set(ctx, tokenstore.AccessTokenKey, pair.Access); err != nil {
		c.metrics.IncRefresh("failure")
		return "", fmt.Errorf("store access token: %w", err)
	}
	if pair.Refresh != "" && pair.Refresh != refreshToken {
		if err := c.tokens.Set(ctx, tokenstore.RefreshTokenKey, pair.Refresh); err != nil {
			c.metrics.IncRefresh("failure")
			return "", fmt.Errorf("store refresh token: %w", err)
		}
	}

	c.metrics.IncRefresh("success")
	c.logger.InfoContext(ctx, "access token refreshed",
		"request_id", requestcontext.RequestID(ctx),
	)
	return pair.Access, nil
}

// expireSession clears both credentials and notifies the handler. A delete
// failure is logged; the session is treated as expired either way.
func (c *Client) expireSession(ctx context.Context) {
	if err := c.tokens.Delete(ctx, tokenstore.SessionKeys...); err != nil {
		c.logger.ErrorContext(ctx, "failed to clear session tokens",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}

	c.mu.RLock()
	handler := c.onSessionExpired
	c.mu.RUnlock()
	if handler != nil {
		handler(ctx)
	}
}
