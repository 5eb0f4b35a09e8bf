package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/MrEthical07/goAuthClient"
)

// goauthclient-smoke drives a live backend through the full client
// lifecycle: login, authenticated requests, a forced refresh, logout.
// Useful for verifying a deployment before wiring the library in.
func main() {
	_ = godotenv.Load()

	var (
		baseURL    = flag.String("base-url", "", "API base URL (or API_BASE_URL env)")
		identifier = flag.String("user", "", "login identifier (or API_USER env)")
		password   = flag.String("password", "", "login password (or API_PASSWORD env)")
		path       = flag.String("path", "/v1/me", "authenticated path to probe")
		tokenFile  = flag.String("token-file", "", "persist tokens at this path (or TOKEN_FILE env)")
		passphrase = flag.String("passphrase", "", "encrypt the token file (or TOKEN_PASSPHRASE env)")
		requests   = flag.Int("requests", 3, "number of probe requests")
	)
	flag.Parse()

	cfg := struct{ baseURL, identifier, password, tokenFile, passphrase string }{
		baseURL:    getConfig(*baseURL, "API_BASE_URL", "http://localhost:8080"),
		identifier: getConfig(*identifier, "API_USER", ""),
		password:   getConfig(*password, "API_PASSWORD", ""),
		tokenFile:  getConfig(*tokenFile, "TOKEN_FILE", ""),
		passphrase: getConfig(*passphrase, "TOKEN_PASSPHRASE", ""),
	}
	if cfg.identifier == "" || cfg.password == "" {
		fmt.Fprintln(os.Stderr, "user and password are required (flags or API_USER/API_PASSWORD env)")
		os.Exit(2)
	}

	client, err := goAuthClient.New().
		WithConfig(func(c *goAuthClient.Config) {
			c.API.BaseURL = cfg.baseURL
			c.Storage.Path = cfg.tokenFile
			c.Storage.Passphrase = cfg.passphrase
		}).
		WithMetricsEnabled(true).
		WithAuditSink(goAuthClient.NewJSONWriterSink(os.Stderr)).
		WithLogoutFunc(func() {
			fmt.Println("session terminated by the server")
		}).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build client: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := client.Login(ctx, cfg.identifier, cfg.password); err != nil {
		fmt.Fprintf(os.Stderr, "login: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("login ok")

	for i := 0; i < *requests; i++ {
		resp, err := client.Get(ctx, *path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "GET %s: %v\n", *path, err)
			os.Exit(1)
		}
		resp.Body.Close()
		fmt.Printf("GET %s -> %d\n", *path, resp.StatusCode)
	}

	if _, err := client.Refresh(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "refresh: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("refresh ok")

	if err := client.Logout(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "logout: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("logout ok")

	snap := client.MetricsSnapshot()
	for id, v := range snap.Counters {
		fmt.Printf("metric %d = %d\n", id, v)
	}
}

// getConfig resolves a setting with flag > env > default priority.
func getConfig(flagValue, envKey, fallback string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return fallback
}
