// Command initdb creates the schema and an initial admin account.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/iliyamo/cable-billing/internal/config"
	"github.com/iliyamo/cable-billing/internal/database"
	"github.com/iliyamo/cable-billing/internal/logger"
	"github.com/iliyamo/cable-billing/internal/repository"
	"github.com/iliyamo/cable-billing/internal/service"
)

func main() {
	username := flag.String("username", "admin", "username of the admin account")
	password := flag.String("password", "admin", "password of the admin account")
	flag.Parse()

	cfg := config.MustLoad()
	log := logger.New(cfg.Env)

	if err := run(cfg, log, *username, *password); err != nil {
		log.Error("initdb failed", slog.String("error", err.Error()))
		fmt.Fprintln(os.Stderr, "initdb:", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger, username, password string) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, dialect, err := database.Open(cfg.DatabaseURI)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(ctx, db, dialect); err != nil {
		return err
	}
	fmt.Println("Database tables created.")

	users := service.NewUserService(repository.NewUserRepo(db), cfg.BcryptCost, log)
	created, err := users.SeedAdmin(ctx, username, password)
	if err != nil {
		return err
	}
	if !created {
		fmt.Printf("User %q already exists; nothing to seed.\n", username)
		return nil
	}
	fmt.Printf("Admin user %q created. Change the password after the first login.\n", username)
	return nil
}
