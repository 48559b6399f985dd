package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"cockpit/internal/access"
	jwttoken "cockpit/internal/jwt_token"
	"cockpit/internal/platform/config"
	"cockpit/internal/platform/httpserver"
	"cockpit/internal/platform/logger"
	"cockpit/internal/platform/postgres"
	id "cockpit/pkg/domain"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cockpit",
		Short:         "Lohnlab Cockpit onboarding API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
	root.AddCommand(serveCmd(), migrateCmd(), grantCmd(), tokenCmd())
	return root
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			if cfg.Database.URL == "" {
				return errors.New("DATABASE_URL is required for migrate")
			}
			log := logger.New(cfg.LogLevel, cfg.LogFormat)
			db, err := postgres.Open(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			applied, err := postgres.Migrate(ctx, db, log)
			if err != nil {
				return err
			}
			log.InfoContext(ctx, "migrations complete", "applied", applied)
			return nil
		},
	}
}

// grantCmd adds a subsidiary membership. The identity backend owns users and companies;
// the back office uses this to link them.
func grantCmd() *cobra.Command {
	var userArg, subsidiaryArg string
	cmd := &cobra.Command{
		Use:   "grant",
		Short: "Give a user access to a subsidiary",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			userID, err := id.ParseUserID(userArg)
			if err != nil {
				return err
			}
			subsidiaryID, err := id.ParseSubsidiaryID(subsidiaryArg)
			if err != nil {
				return err
			}
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			if cfg.Database.URL == "" {
				return errors.New("DATABASE_URL is required for grant")
			}
			db, err := postgres.Open(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()
			return access.NewPostgres(db).Grant(ctx, userID, subsidiaryID)
		},
	}
	cmd.Flags().StringVar(&userArg, "user", "", "user id")
	cmd.Flags().StringVar(&subsidiaryArg, "subsidiary", "", "subsidiary id")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("subsidiary")
	return cmd
}

// tokenCmd signs a bearer token with the configured key, for local development.
func tokenCmd() *cobra.Command {
	var (
		userArg string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a development bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			if !cfg.IsDevelopment() {
				return errors.New("token is only available in development")
			}
			userID := id.UserID(uuid.New())
			if userArg != "" {
				if userID, err = id.ParseUserID(userArg); err != nil {
					return err
				}
			}
			token, err := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer).GenerateAccessToken(userID, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userArg, "user", "", "user id (random when empty)")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}

func serve(ctx context.Context) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	a, err := buildApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	srv := httpserver.New(cfg.Addr, a.router)
	errCh := make(chan error, 1)
	go func() {
		log.InfoContext(ctx, "starting cockpit", "addr", cfg.Addr, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
