package goAuthClient

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// accessTokenExpiry inspects the JWT exp claim without verifying the
// signature. The client holds no signing key; verification is the
// server's job. Opaque tokens report no expiry.
func accessTokenExpiry(accessToken string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// ensureFresh renews the access token ahead of a send when its expiry is
// within the configured leeway. Failure falls through to the 401 path.
func (c *Client) ensureFresh(ctx context.Context, accessToken string) (string, error) {
	exp, ok := accessTokenExpiry(accessToken)
	if !ok {
		return accessToken, nil
	}
	if time.Until(exp) > c.config.Refresh.ExpiryLeeway {
		return accessToken, nil
	}

	pair, err := c.coordinator.Refresh(ctx)
	if err != nil {
		return "", err
	}
	return pair.AccessToken, nil
}
