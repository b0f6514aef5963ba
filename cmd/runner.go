package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/melodylog/internal/library"
	"github.com/desertthunder/melodylog/internal/models"
	"github.com/desertthunder/melodylog/internal/repositories"
	"github.com/desertthunder/melodylog/internal/services"
	"github.com/desertthunder/melodylog/internal/shared"
	"github.com/desertthunder/melodylog/internal/tasks"
	"github.com/urfave/cli/v3"
)

// AccessTokenKey is the storage key of the PostgREST bearer token saved by "auth login --token".
const AccessTokenKey = "melodylog_access_token"

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Storage, the provider gateway and the library are built on first use by [Runner.open], so
// commands that never touch them (setup config, --help) never open the database.
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer
	input      io.Reader
	progress   io.Writer
	httpClient *http.Client

	db       *sql.DB
	ownsDB   bool
	kv       *repositories.KVRepository
	users    *repositories.UserRepository
	sessions *repositories.SessionRepository
	gateway  *services.Gateway
	importer *tasks.Importer
	library  *library.Library
	user     *models.User
}

// RunnerOpts contains configuration options for creating a Runner.
//
// DB and Gateway are normally left nil and built from Config.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader // read by imports without a path; defaults to stdin
	Progress   io.Writer // progress bar target; defaults to stderr
	DB         *sql.DB
	Gateway    *services.Gateway
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Progress == nil {
		opts.Progress = os.Stderr
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      opts.Input,
		progress:   opts.Progress,
		db:         opts.DB,
		gateway:    opts.Gateway,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, songsCommand, importCommand, exportCommand,
		searchCommand, providersCommand, cacheCommand, migrateCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before applies global flags and loads the configuration file when none was injected.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	if r.config != nil {
		return ctx, nil
	}

	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}
	r.config = r.loadConfig(r.configPath)
	return ctx, nil
}

// After releases the database opened by [Runner.open].
func (r *Runner) After(_ context.Context, _ *cli.Command) error {
	return r.Close()
}

// Close closes the database if the runner opened it.
func (r *Runner) Close() error {
	if r.db != nil && r.ownsDB {
		err := r.db.Close()
		r.db = nil
		return err
	}
	return nil
}

// loadConfig reads path when it exists and falls back to defaults otherwise.
func (r *Runner) loadConfig(path string) *shared.Config {
	if path == "" {
		return shared.DefaultConfig()
	}
	if _, err := os.Stat(path); err != nil {
		r.logger.Debug("config file not found, using defaults", "path", path)
		return shared.DefaultConfig()
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		r.logger.Warn("failed to load config, using defaults", "error", err)
		return shared.DefaultConfig()
	}
	return config
}

// open builds storage, the gateway and the library, then restores the saved session.
//
// With a saved session the library signs in, which migrates local-only songs and loads the
// remote collection; otherwise the local-only collection is loaded.
func (r *Runner) open(ctx context.Context) error {
	if r.library != nil {
		return nil
	}
	if r.config == nil {
		r.config = shared.DefaultConfig()
	}

	if r.db == nil {
		db, err := shared.OpenConfigured(r.config.Database)
		if err != nil {
			return err
		}
		r.db, r.ownsDB = db, true
	} else if err := shared.RunMigrations(r.db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	r.kv = repositories.NewKVRepository(r.db)
	r.users = repositories.NewUserRepository(r.db)
	r.sessions = repositories.NewSessionRepository(r.kv, r.users)

	if r.gateway == nil {
		gw, err := services.NewConfiguredGateway(r.logger, services.GatewayOptions{
			Config: r.config.Providers,
			Creds:  r.config.Credentials.Spotify,
			Client: r.httpClient,
		})
		if err != nil {
			return err
		}
		r.gateway = gw
	}

	remote, err := r.remoteStore(ctx)
	if err != nil {
		return err
	}

	reconciler := tasks.NewReconciler(r.gateway, r.logger)
	r.importer = tasks.NewImporter(reconciler, tasks.NewThrottle(r.config.Import.Delay()), r.logger)
	r.library = library.New(r.kv, remote, library.Options{
		CacheTTL:   r.config.Cache.TTL.Duration,
		Reconciler: reconciler,
		Logger:     r.logger,
	})

	user, err := r.sessions.Current(ctx)
	if err != nil {
		return err
	}
	if user == nil {
		return r.library.LoadAll(ctx, nil)
	}

	r.user = user
	r.logger.Debug("restoring session", "user", user.Email)
	return r.library.SignIn(ctx, user.ID, nil)
}

// remoteStore selects the remote-mode song table from the configured backend.
func (r *Runner) remoteStore(ctx context.Context) (library.SongStore, error) {
	switch r.config.Remote.Backend {
	case "", "sqlite":
		return repositories.NewSongRepository(r.db), nil
	case "postgrest":
		client := repositories.NewPostgRESTClient(r.config.Remote.URL, r.config.Remote.AnonKey, r.httpClient)
		token, ok, err := r.kv.Get(ctx, AccessTokenKey)
		if err != nil {
			return nil, err
		}
		if ok && token != "" {
			client = client.WithAccessToken(token)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("%w: unknown remote backend %q", shared.ErrInvalidConfig, r.config.Remote.Backend)
	}
}

func (r *Runner) reportLimit() int {
	if r.config != nil && r.config.Import.ReportLimit > 0 {
		return r.config.Import.ReportLimit
	}
	return models.DefaultReportLimit
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
