package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"civic-complaints/internal/config"
	"civic-complaints/internal/domain"
	"civic-complaints/internal/repository/sqlite"
	"civic-complaints/internal/service"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		username string
		password string
		dbPath   string
	)

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account in the complaints database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(username) == "" || password == "" {
				return errors.New("--username and --password are required")
			}
			return createAdmin(cmd.Context(), cmd, dbPath, username, password)
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "admin username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "admin password")
	cmd.Flags().StringVar(&dbPath, "db", "", "database path (defaults to CIVIC_DATABASE_PATH)")
	return cmd
}

func createAdmin(ctx context.Context, cmd *cobra.Command, dbPath, username, password string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if dbPath == "" {
		dbPath = cfg.Database.Path
	}

	db, err := sqlite.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	users := sqlite.NewUserRepository(db)
	if _, err := users.Init(ctx); err != nil {
		return fmt.Errorf("init user repository: %w", err)
	}
	complaints := sqlite.NewComplaintRepository(db)
	if err := complaints.Init(ctx); err != nil {
		return fmt.Errorf("init complaint repository: %w", err)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Tokens are never issued here, so the issuer's secret is irrelevant.
	auth, err := service.NewAuthService(users, service.NewTokenIssuer("create-admin", service.DefaultTokenTTL), service.AuthConfig{
		BcryptCost: cfg.Auth.BcryptCost,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	admin, err := auth.CreateAdmin(ctx, username, password)
	if errors.Is(err, domain.ErrDuplicateIdentity) {
		return fmt.Errorf("user %q already exists", username)
	}
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "admin created: id=%d username=%s role=%s\n", admin.ID, admin.Username, admin.Role)
	return nil
}
