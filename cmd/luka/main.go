package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/treinafit/luka/internal/api"
	"github.com/treinafit/luka/internal/faq"
	"github.com/treinafit/luka/internal/flow"
	"github.com/treinafit/luka/internal/sched"
	"github.com/treinafit/luka/internal/session"
	"github.com/treinafit/luka/internal/twiliowhatsapp"
	"github.com/treinafit/luka/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for Luka state data
	DefaultStateDir = "/var/lib/luka"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "luka.db"
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	if err := run(flags); err != nil {
		slog.Error("Luka failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("Luka exited successfully")
}

// Config holds environment configuration
type Config struct {
	DatabaseURL string
	StateDir    string
	RedisAddr   string
	APIAddr     string
	FAQPath     string
	UseTwilio   bool
}

// Flags holds command line flag values
type Flags struct {
	stateDir  *string
	dbDSN     *string
	redisAddr *string
	apiAddr   *string
	faqPath   *string
	memory    *bool
	useTwilio *bool
}

// initializeLogger sets up structured logging; LUKA_DEBUG raises the level.
func initializeLogger() {
	level := slog.LevelInfo
	if util.ParseBoolEnv("LUKA_DEBUG", false) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		StateDir:    os.Getenv("LUKA_STATE_DIR"),
		RedisAddr:   os.Getenv("REDIS_ADDR"),
		APIAddr:     os.Getenv("API_ADDR"),
		FAQPath:     os.Getenv("LUKA_FAQ_PATH"),
		UseTwilio:   util.ParseBoolEnv("USE_TWILIO", false),
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No LUKA_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}

	// Without a database URL, bookings go to SQLite in the state directory.
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}

	slog.Debug("environment variables loaded",
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"LUKA_STATE_DIR", config.StateDir,
		"REDIS_ADDR_SET", config.RedisAddr != "",
		"API_ADDR", config.APIAddr,
		"LUKA_FAQ_PATH", config.FAQPath,
		"USE_TWILIO", config.UseTwilio)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:  flag.String("state-dir", config.StateDir, "state directory for Luka data (overrides $LUKA_STATE_DIR)"),
		dbDSN:     flag.String("db-dsn", config.DatabaseURL, "database DSN for the booking store (overrides $DATABASE_URL)"),
		redisAddr: flag.String("redis-addr", config.RedisAddr, "Redis address for session storage (overrides $REDIS_ADDR)"),
		apiAddr:   flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		faqPath:   flag.String("faq-path", config.FAQPath, "path to a FAQ JSON file (overrides $LUKA_FAQ_PATH)"),
		memory:    flag.Bool("memory", false, "keep bookings and sessions in memory only"),
		useTwilio: flag.Bool("twilio", config.UseTwilio, "send webhook replies through the Twilio REST API (overrides $USE_TWILIO)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"stateDir", *flags.stateDir,
		"dbDSN_set", *flags.dbDSN != "",
		"redisAddr", *flags.redisAddr,
		"apiAddr", *flags.apiAddr,
		"faqPath", *flags.faqPath,
		"memory", *flags.memory,
		"useTwilio", *flags.useTwilio)

	// Follow a moved state directory when the DSN still points at the default.
	if *flags.dbDSN == filepath.Join(config.StateDir, DefaultDBFileName) && *flags.stateDir != config.StateDir {
		*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("Updated dbDSN based on state directory", "new_state_dir", *flags.stateDir)
	}

	return flags
}

// buildBookingStore selects and seeds the scheduling backend.
func buildBookingStore(ctx context.Context, flags Flags, now time.Time) (sched.Store, func(), error) {
	if *flags.memory || *flags.dbDSN == "" {
		slog.Info("Using in-memory booking store")
		return sched.NewMemoryStore(now), func() {}, nil
	}

	if sched.DetectDSNType(*flags.dbDSN) == "postgres" {
		slog.Info("Using PostgreSQL booking store")
		st, err := sched.NewPostgresStore(sched.WithDSN(*flags.dbDSN))
		if err != nil {
			return nil, nil, err
		}
		if err := st.SeedSlots(ctx, now); err != nil {
			st.Close()
			return nil, nil, err
		}
		return st, func() { st.Close() }, nil
	}

	slog.Info("Using SQLite booking store", "path", *flags.dbDSN)
	st, err := sched.NewSQLiteStore(sched.WithDSN(*flags.dbDSN))
	if err != nil {
		return nil, nil, err
	}
	if err := st.SeedSlots(ctx, now); err != nil {
		st.Close()
		return nil, nil, err
	}
	return st, func() { st.Close() }, nil
}

// buildSessionStore selects the session backend.
func buildSessionStore(flags Flags) (session.Store, func(), error) {
	if *flags.memory || *flags.redisAddr == "" {
		slog.Info("Using in-memory session store")
		return session.NewMemoryStore(), func() {}, nil
	}
	slog.Info("Using Redis session store", "addr", *flags.redisAddr)
	st, err := session.NewRedisStore(session.WithAddr(*flags.redisAddr))
	if err != nil {
		return nil, nil, err
	}
	return st, func() { st.Close() }, nil
}

func run(flags Flags) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	now := time.Now()

	bookings, closeBookings, err := buildBookingStore(ctx, flags, now)
	if err != nil {
		return err
	}
	defer closeBookings()

	sessions, closeSessions, err := buildSessionStore(flags)
	if err != nil {
		return err
	}
	defer closeSessions()

	var faqOpts []faq.Option
	if *flags.faqPath != "" {
		faqOpts = append(faqOpts, faq.WithPath(*flags.faqPath))
	}
	index, err := faq.NewIndex(faqOpts...)
	if err != nil {
		return err
	}

	engine := flow.NewEngine(
		flow.NewBookingInterceptor(bookings, nil),
		flow.NewFAQHandler(index),
		flow.NewRouter(sched.Venues(), sched.Activities()),
	)

	apiOpts := []api.Option{}
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	if *flags.useTwilio {
		sender, err := twiliowhatsapp.NewClient()
		if err != nil {
			return err
		}
		apiOpts = append(apiOpts, api.WithSender(sender))
	}

	server := api.NewServer(engine, session.NewManager(sessions), apiOpts...)
	slog.Info("Bootstrapping Luka", "api_addr", *flags.apiAddr)
	return server.Run(ctx)
}
