package goAuthClient

import "errors"

var (
	// ErrClientNotReady is an exported constant or variable used by the API client.
	ErrClientNotReady = errors.New("client not initialized")
	// ErrNoSession is an exported constant or variable used by the API client.
	ErrNoSession = errors.New("no session: refresh token missing")
	// ErrSessionTerminated is an exported constant or variable used by the API client.
	ErrSessionTerminated = errors.New("session terminated: token refresh failed")
	// ErrRequestFailed is an exported constant or variable used by the API client.
	ErrRequestFailed = errors.New("request failed")
	// ErrLoginFailed is an exported constant or variable used by the API client.
	ErrLoginFailed = errors.New("login rejected")
	// ErrRefreshRejected is an exported constant or variable used by the API client.
	ErrRefreshRejected = errors.New("refresh rejected")
	// ErrInvalidTokenPayload is an exported constant or variable used by the API client.
	ErrInvalidTokenPayload = errors.New("token payload missing access token")
)
