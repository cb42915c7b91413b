// adminctl manages the admin allow-list and block deny-list from the CLI.
//
// Usage:
//
//	adminctl grant <user_id> <handle>
//	adminctl revoke <user_id>
//	adminctl block <user_id> <handle>
//	adminctl unblock <user_id>
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/T44VI/raittiusseuranhakubot/internal/access"
	"github.com/T44VI/raittiusseuranhakubot/internal/config"
	"github.com/T44VI/raittiusseuranhakubot/internal/store"
	"github.com/joho/godotenv"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: adminctl {grant|block} <user_id> <handle> | adminctl {revoke|unblock} <user_id>")
	os.Exit(2)
}

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	if len(os.Args) < 3 {
		usage()
	}
	command, userID := os.Args[1], os.Args[2]

	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	checker := access.NewChecker(repo)
	ctx := context.Background()

	switch command {
	case "grant", "block":
		if len(os.Args) < 4 {
			usage()
		}
		handle := os.Args[3]
		if command == "grant" {
			err = checker.Grant(ctx, userID, handle)
		} else {
			err = checker.Block(ctx, userID, handle)
		}
	case "revoke":
		err = checker.Revoke(ctx, userID)
	case "unblock":
		err = checker.Unblock(ctx, userID)
	default:
		usage()
	}

	if err != nil {
		slog.Error("Command failed", "command", command, "user_id", userID, "error", err)
		os.Exit(1)
	}
	fmt.Printf("%s: ok (%s)\n", command, userID)
}
