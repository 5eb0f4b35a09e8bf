package goAuthClient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/MrEthical07/goAuthClient/internal/flows"
	"github.com/MrEthical07/goAuthClient/token"
)

// Login exchanges credentials for a session and persists the resulting
// token pair. The login request itself is never sent with a bearer token
// and never triggers the 401 refresh path.
func (c *Client) Login(ctx context.Context, identifier, password string) error {
	if c == nil {
		return ErrClientNotReady
	}

	pair, err := c.loginFn(ctx, identifier, password)
	if err != nil {
		c.metricInc(MetricLoginFailure)
		c.emitAuth("login", false, err)
		return err
	}

	if err := c.store.SetTokens(ctx, pair); err != nil {
		// The session is live server-side; a persistence failure only
		// means it will not survive this process.
		c.warnf("login: token store write failed: %v", err)
	}

	c.metricInc(MetricLoginSuccess)
	c.emitAuth("login", true, nil)
	return nil
}

// endpointLogin is the default LoginFunc: POST credentials as JSON to the
// configured login path, anonymously, with transient retries.
func (c *Client) endpointLogin(ctx context.Context, identifier, password string) (token.Pair, error) {
	req, err := newJSONRequest(ctx, http.MethodPost, c.endpoint(c.config.API.LoginPath), Credentials{
		Identifier: identifier,
		Password:   password,
	})
	if err != nil {
		return token.Pair{}, err
	}

	result := flows.RunRequest(ctx, req, c.anonDeps)
	if result.Failure != flows.RequestFailureNone {
		if isContextErr(result.Err) {
			return token.Pair{}, result.Err
		}
		return token.Pair{}, fmt.Errorf("%w: %v", ErrRequestFailed, result.Err)
	}

	resp := result.Response
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return token.Pair{}, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return token.Pair{}, fmt.Errorf("%w: status %d", ErrLoginFailed, resp.StatusCode)
	}

	return decodeTokenPayload(body)
}

// decodeTokenPayload accepts both camelCase and snake_case token fields,
// since auth backends disagree on which to emit.
func decodeTokenPayload(data []byte) (token.Pair, error) {
	var payload struct {
		AccessToken       string `json:"accessToken"`
		AccessTokenSnake  string `json:"access_token"`
		RefreshToken      string `json:"refreshToken"`
		RefreshTokenSnake string `json:"refresh_token"`
		ExpiresIn         int64  `json:"expiresIn"`
		ExpiresInSnake    int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return token.Pair{}, fmt.Errorf("%w: %v", ErrInvalidTokenPayload, err)
	}

	pair := token.Pair{
		AccessToken:  firstNonEmpty(payload.AccessToken, payload.AccessTokenSnake),
		RefreshToken: firstNonEmpty(payload.RefreshToken, payload.RefreshTokenSnake),
	}
	if pair.AccessToken == "" {
		return token.Pair{}, ErrInvalidTokenPayload
	}

	expiresIn := payload.ExpiresIn
	if expiresIn == 0 {
		expiresIn = payload.ExpiresInSnake
	}
	if expiresIn > 0 {
		pair.ExpiresAt = time.Now().Add(time.Duration(expiresIn) * time.Second)
	}

	return pair, nil
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// newJSONRequest builds a request whose body survives retries: a bytes
// reader gives net/http a GetBody automatically.
func newJSONRequest(ctx context.Context, method, url string, body any) (*http.Request, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}
