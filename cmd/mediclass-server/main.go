package main

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mediclass/mediclass/internal/config"
	"github.com/mediclass/mediclass/internal/domain/staff"
	"github.com/mediclass/mediclass/internal/platform/db"
	"github.com/mediclass/mediclass/migrations"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "mediclass-server",
		Short: "MediClass clinical triage API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(staffCmd())
	rootCmd.AddCommand(historyCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MediClass API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	openMigrator := func(cmd *cobra.Command) (*db.Migrator, func(), error) {
		dir, _ := cmd.Flags().GetString("dir")
		cfg, err := config.Load()
		if err != nil {
			return nil, nil, err
		}
		if cfg.DatabaseURL == "" {
			return nil, nil, fmt.Errorf("DATABASE_URL is required for migrations")
		}
		pool, err := db.Connect(cmd.Context(), poolConfig(cfg))
		if err != nil {
			return nil, nil, err
		}
		var fsys fs.FS = migrations.FS
		if dir != "" {
			fsys = os.DirFS(dir)
		}
		return db.NewMigrator(pool, fsys), pool.Close, nil
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			migrator, closeFn, err := openMigrator(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			count, err := migrator.Up(cmd.Context())
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "", "Read migrations from this directory instead of the embedded set")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			migrator, closeFn, err := openMigrator(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			statuses, err := migrator.Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "", "Read migrations from this directory instead of the embedded set")
	cmd.AddCommand(statusCmd)

	return cmd
}

func staffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "staff",
		Short: "Manage staff accounts",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a staff account",
		RunE: func(cmd *cobra.Command, args []string) error {
			var n staff.NewMember
			n.Login, _ = cmd.Flags().GetString("login")
			n.Name, _ = cmd.Flags().GetString("name")
			n.Registration, _ = cmd.Flags().GetString("registration")
			n.Role, _ = cmd.Flags().GetString("role")
			n.Password, _ = cmd.Flags().GetString("password")
			if n.Password == "" {
				n.Password = os.Getenv("MEDICLASS_STAFF_PASSWORD")
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			b, err := openBackends(cmd.Context(), cfg, newLogger(cfg))
			if err != nil {
				return err
			}
			defer b.Close()

			svc := staff.NewService(b.staffRepo, nil, b.logger)
			m, err := svc.Create(cmd.Context(), n)
			if err != nil {
				return err
			}
			fmt.Printf("Created %s %s (%s).\n", m.Role, m.Login, m.Session().Signature())
			return nil
		},
	}
	createCmd.Flags().String("login", "", "Login name")
	createCmd.Flags().String("name", "", "Full name")
	createCmd.Flags().String("registration", "", "Professional registration number")
	createCmd.Flags().String("role", "", "diagnostician, intake or technician")
	createCmd.Flags().String("password", "", "Password (defaults to $MEDICLASS_STAFF_PASSWORD)")
	cmd.AddCommand(createCmd)

	return cmd
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect patient histories",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "verify <cpf>",
		Short: "Check the hash chain of a patient's history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			b, err := openBackends(cmd.Context(), cfg, newLogger(cfg))
			if err != nil {
				return err
			}
			defer b.Close()

			if err := b.ledger.Verify(cmd.Context(), args[0]); err != nil {
				return err
			}
			entries, err := b.ledger.ReadAll(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("History of %s is intact (%d entries, head %s).\n",
				args[0], len(entries), entries[len(entries)-1].Hash)
			return nil
		},
	})

	return cmd
}

func runServer() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx := context.Background()
	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to start")
		return err
	}
	defer a.Close()

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("store", cfg.Store).Str("history", cfg.HistoryBackend).Msg("starting server")
		if err := a.echo.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.echo.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
