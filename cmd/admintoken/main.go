// Command admintoken issues a bearer token for the admin routes, signed with
// the configured ADMIN_JWT_SIGNING_KEY.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"enroll/internal/platform/config"
	"enroll/internal/platform/middleware"
)

func main() {
	subject := flag.String("subject", "", "operator identity recorded with admin actions")
	ttl := flag.Duration("ttl", 12*time.Hour, "token lifetime")
	flag.Parse()

	if *subject == "" {
		fmt.Fprintln(os.Stderr, "usage: admintoken -subject ops@example.com [-ttl 12h]")
		os.Exit(2)
	}

	cfg, err := config.Load(".")
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if cfg.Admin.JWTSigningKey == "" {
		slog.Error("ADMIN_JWT_SIGNING_KEY is not set")
		os.Exit(1)
	}

	token, err := middleware.NewAdminTokens(cfg.Admin.JWTSigningKey, cfg.Admin.Issuer).Issue(*subject, time.Now(), *ttl)
	if err != nil {
		slog.Error("failed to issue token", "error", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
