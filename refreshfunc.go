package goAuthClient

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/MrEthical07/goAuthClient/token"
)

// NewEndpointRefreshFunc returns a [RefreshFunc] that POSTs the refresh
// token as JSON to refreshURL. Non-2xx responses are reported as
// [ErrRefreshRejected], which terminates the session.
func NewEndpointRefreshFunc(httpClient *http.Client, refreshURL string) RefreshFunc {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return func(ctx context.Context, refreshToken string) (token.Pair, error) {
		req, err := newJSONRequest(ctx, http.MethodPost, refreshURL, map[string]string{
			"refreshToken": refreshToken,
		})
		if err != nil {
			return token.Pair{}, err
		}

		resp, err := httpClient.Do(req)
		if err != nil {
			return token.Pair{}, fmt.Errorf("%w: %v", ErrRefreshRejected, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return token.Pair{}, fmt.Errorf("%w: %v", ErrRefreshRejected, err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return token.Pair{}, fmt.Errorf("%w: status %d", ErrRefreshRejected, resp.StatusCode)
		}

		return decodeTokenPayload(body)
	}
}

// NewOAuth2RefreshFunc returns a [RefreshFunc] backed by a standard OAuth2
// token endpoint. A missing refresh token in the response keeps the
// current one, matching fixed-rotation providers.
func NewOAuth2RefreshFunc(cfg *oauth2.Config) RefreshFunc {
	return func(ctx context.Context, refreshToken string) (token.Pair, error) {
		tok, err := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
		if err != nil {
			return token.Pair{}, fmt.Errorf("%w: %v", ErrRefreshRejected, err)
		}
		return token.Pair{
			AccessToken:  tok.AccessToken,
			RefreshToken: tok.RefreshToken,
			ExpiresAt:    tok.Expiry,
		}, nil
	}
}
