// Package cli implements the autopark command line client.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/iudanet/autopark/internal/client/api"
	"github.com/iudanet/autopark/internal/client/auth"
	"github.com/iudanet/autopark/internal/client/fleet"
	"github.com/iudanet/autopark/internal/client/iocli"
	"github.com/iudanet/autopark/internal/client/notify"
	"github.com/iudanet/autopark/internal/client/profile"
	"github.com/iudanet/autopark/internal/client/session"
	"github.com/iudanet/autopark/internal/client/storage/boltdb"
	"github.com/iudanet/autopark/internal/config"
	"github.com/iudanet/autopark/internal/logger"
)

// annotationNoSession помечает команды, которым не нужна сохраненная сессия
const annotationNoSession = "no-session"

// globalFlags persistent flags of the root command
type globalFlags struct {
	configPath string
	serverURL  string
	dbPath     string
	logLevel   string
	logFormat  string
}

// Cli holds the client stack shared by all commands of one invocation.
type Cli struct {
	io    iocli.IO
	flags globalFlags
	cfg   config.Client

	logger   *slog.Logger
	closeLog func() error
	storage  *boltdb.Storage

	apiClient   *api.Client
	store       *session.Store
	refresher   *auth.Refresher
	authService *auth.Service
	profile     *profile.Service
	fleet       *fleet.Service
	notify      *notify.Service
}

// Execute runs the client with args and releases every resource it opened,
// including on error.
func Execute(ctx context.Context, io iocli.IO, args []string) error {
	c := &Cli{io: io}
	root := c.rootCommand()
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if closeErr := c.close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

// FormatError returns the message printed for a failed command.
func FormatError(err error) string {
	switch {
	case errors.Is(err, auth.ErrSessionExpired):
		return "session expired, please log in again"
	case errors.Is(err, auth.ErrNotAuthenticated):
		return "not logged in, run 'autopark login' first"
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}

func (c *Cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "autopark",
		Short:         "AutoPark command line client",
		Long:          `Reserve vehicles across parking and dealer accounts, manage your profile and notifications.`,
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // main prints errors through FormatError
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}
	root.SetOut(c.io)
	root.SetErr(c.io)

	root.PersistentFlags().StringVar(&c.flags.configPath, "config", "",
		"Config file (default ~/.config/autopark/config.yaml)")
	root.PersistentFlags().StringVar(&c.flags.serverURL, "server", "", "Server URL")
	root.PersistentFlags().StringVar(&c.flags.dbPath, "db", "", "Path to local database")
	root.PersistentFlags().StringVar(&c.flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&c.flags.logFormat, "log-format", "", "Log format (text, json)")

	root.AddCommand(
		c.newRegisterCommand(),
		c.newLoginCommand(),
		c.newLogoutCommand(),
		c.newStatusCommand(),
		c.newMeCommand(),
		c.newNotificationsCommand(),
		c.newVehiclesCommand(),
		c.newVehicleCommand(),
		c.newReserveCommand(),
		c.newReservationsCommand(),
		c.newCancelCommand(),
	)

	return root
}

// setup загружает конфигурацию и собирает клиентский стек
func (c *Cli) setup(cmd *cobra.Command) error {
	ctx := cmd.Context()

	cfg, err := config.LoadClient(c.flags.configPath)
	if err != nil {
		return err
	}
	c.applyFlags(cmd, &cfg)
	c.cfg = cfg

	log, closeLog, err := logger.SetupLogger(logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		File:   cfg.Log.File,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	slog.SetDefault(log)
	c.closeLog = closeLog
	c.logger = logger.WithCommand(log, cmd.Name())

	c.apiClient = api.NewClient(cfg.ServerURL,
		api.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		api.WithLogger(c.logger))

	storeOpts := []session.StoreOption{session.WithLogger(c.logger)}
	needsSession := cmd.Annotations[annotationNoSession] == ""
	if needsSession {
		persister, err := c.openVault(ctx)
		if err != nil {
			return err
		}
		storeOpts = append(storeOpts, session.WithPersister(persister))
	}

	c.store = session.NewStore(storeOpts...)
	c.refresher = auth.NewRefresher(c.apiClient, c.store, auth.WithRefresherLogger(c.logger))
	c.authService = auth.NewService(c.apiClient, c.store, c.logger, auth.WithServiceRefresher(c.refresher))
	c.profile = profile.NewService(c.apiClient, c.refresher, c.logger)
	c.fleet = fleet.NewService(c.apiClient, c.refresher, c.logger)
	c.notify = notify.NewService(c.apiClient, c.refresher, c.logger)

	if needsSession {
		if err := c.authService.Restore(ctx); err != nil {
			// поврежденная или чужая сессия: продолжаем без нее, login перезапишет
			c.logger.WarnContext(ctx, "stored session ignored", slog.Any("error", err))
		}
	}

	c.logger.DebugContext(ctx, "CLI started", slog.String("server", cfg.ServerURL))
	return nil
}

// applyFlags flags override file and environment settings
func (c *Cli) applyFlags(cmd *cobra.Command, cfg *config.Client) {
	flags := cmd.Flags()
	if flags.Changed("server") {
		cfg.ServerURL = c.flags.serverURL
	}
	if flags.Changed("db") {
		cfg.DBPath = c.flags.dbPath
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = c.flags.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = c.flags.logFormat
	}
}

// openVault открывает BoltDB и шифрованное хранилище токенов
func (c *Cli) openVault(ctx context.Context) (*session.Vault, error) {
	if err := os.MkdirAll(filepath.Dir(c.cfg.DBPath), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	boltStorage, err := boltdb.New(ctx, c.cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	c.storage = boltStorage

	passphrase := c.cfg.Passphrase
	if passphrase == "" {
		passphrase, err = c.io.ReadPassword("Device passphrase: ")
		if err != nil {
			return nil, fmt.Errorf("failed to read passphrase: %w", err)
		}
		if passphrase == "" {
			return nil, fmt.Errorf("passphrase cannot be empty (set %sPASSPHRASE)", config.EnvPrefix)
		}
	}

	return session.NewVault(boltStorage, passphrase), nil
}

func (c *Cli) close() error {
	var errs []error
	if c.storage != nil {
		if err := c.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}
	if c.closeLog != nil {
		if err := c.closeLog(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
