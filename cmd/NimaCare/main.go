package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/BTreeMap/NimaCare/internal/api"
	"github.com/BTreeMap/NimaCare/internal/genai"
	"github.com/BTreeMap/NimaCare/internal/sms"
	"github.com/BTreeMap/NimaCare/internal/store"
	"github.com/BTreeMap/NimaCare/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for NimaCare state data
	DefaultStateDir = "/var/lib/nimacare"
	// DefaultDBFileName is the default SQLite session database filename
	DefaultDBFileName = "nimacare.db"
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	if err := ensureDirectoriesExist(flags); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	storeOpts := buildStoreOptions(flags)
	genaiOpts := buildGenAIOptions(flags)
	smsOpts := buildSMSOptions(flags)
	apiOpts := buildAPIOptions(flags)

	slog.Info("Bootstrapping NimaCare with configured modules")
	slog.Debug("Module options counts", "store", len(storeOpts), "genai", len(genaiOpts), "sms", len(smsOpts), "api", len(apiOpts))
	slog.Debug("Final configuration", "state_dir", *flags.stateDir, "dsn_set", *flags.dbDSN != "", "in_memory", *flags.inMemory, "api_addr", *flags.apiAddr)
	if err := api.Run(storeOpts, genaiOpts, smsOpts, apiOpts); err != nil {
		slog.Error("NimaCare failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("NimaCare exited successfully")
}

// Config holds environment configuration
type Config struct {
	StateDir         string
	DatabaseURL      string
	OpenAIKey        string
	OpenAIModel      string
	OpenAIBaseURL    string
	GenAITimeout     time.Duration
	GenAIDebug       bool
	APIAddr          string
	PublicURL        string
	SessionTTL       time.Duration
	CatalogFile      string
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string
}

// Flags holds command line flag values
type Flags struct {
	stateDir     *string
	dbDSN        *string
	inMemory     *bool
	openaiKey    *string
	openaiModel  *string
	openaiURL    *string
	genaiTimeout *time.Duration
	genaiDebug   *bool
	apiAddr      *string
	publicURL    *string
	sessionTTL   *time.Duration
	catalogFile  *string
	twilioSID    *string
	twilioToken  *string
	twilioFrom   *string
}

// initializeLogger sets up structured logging with debug level
func initializeLogger() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
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
		StateDir:         os.Getenv("NIMACARE_STATE_DIR"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		OpenAIKey:        os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:      os.Getenv("OPENAI_MODEL"),
		OpenAIBaseURL:    os.Getenv("OPENAI_BASE_URL"),
		GenAITimeout:     util.ParseDurationEnv("GENAI_TIMEOUT", genai.DefaultTimeout),
		GenAIDebug:       util.ParseBoolEnv("GENAI_DEBUG", false),
		APIAddr:          os.Getenv("API_ADDR"),
		PublicURL:        os.Getenv("PUBLIC_URL"),
		SessionTTL:       util.ParseDurationEnv("SESSION_TTL", store.DefaultSessionTTL),
		CatalogFile:      os.Getenv("CATALOG_FILE"),
		TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFromNumber: os.Getenv("TWILIO_FROM_NUMBER"),
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No NIMACARE_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	} else {
		slog.Debug("NIMACARE_STATE_DIR found in environment", "state_dir", config.StateDir)
	}

	// Without a database URL, sessions live in SQLite inside the state directory
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No DATABASE_URL provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}

	slog.Debug("environment variables loaded",
		"NIMACARE_STATE_DIR", config.StateDir,
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"OPENAI_MODEL", config.OpenAIModel,
		"GENAI_TIMEOUT", config.GenAITimeout,
		"GENAI_DEBUG", config.GenAIDebug,
		"API_ADDR", config.APIAddr,
		"SESSION_TTL", config.SessionTTL,
		"CATALOG_FILE", config.CatalogFile,
		"TWILIO_ACCOUNT_SID_SET", config.TwilioAccountSID != "",
		"TWILIO_FROM_NUMBER", config.TwilioFromNumber)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:     flag.String("state-dir", config.StateDir, "state directory for NimaCare data (overrides $NIMACARE_STATE_DIR)"),
		dbDSN:        flag.String("db-dsn", config.DatabaseURL, "session database DSN, PostgreSQL URL or SQLite path (overrides $DATABASE_URL)"),
		inMemory:     flag.Bool("in-memory", false, "keep sessions in memory only"),
		openaiKey:    flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		openaiModel:  flag.String("openai-model", config.OpenAIModel, "OpenAI chat model (overrides $OPENAI_MODEL)"),
		openaiURL:    flag.String("openai-base-url", config.OpenAIBaseURL, "OpenAI-compatible API base URL (overrides $OPENAI_BASE_URL)"),
		genaiTimeout: flag.Duration("genai-timeout", config.GenAITimeout, "per-call generation timeout (overrides $GENAI_TIMEOUT)"),
		genaiDebug:   flag.Bool("genai-debug", config.GenAIDebug, "log every generation call to the state directory (overrides $GENAI_DEBUG)"),
		apiAddr:      flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		publicURL:    flag.String("public-url", config.PublicURL, "public base URL, enables Twilio signature checks (overrides $PUBLIC_URL)"),
		sessionTTL:   flag.Duration("session-ttl", config.SessionTTL, "idle session lifetime (overrides $SESSION_TTL)"),
		catalogFile:  flag.String("catalog-file", config.CatalogFile, "YAML counselor/habit/group catalog (overrides $CATALOG_FILE)"),
		twilioSID:    flag.String("twilio-account-sid", config.TwilioAccountSID, "Twilio account SID (overrides $TWILIO_ACCOUNT_SID)"),
		twilioToken:  flag.String("twilio-auth-token", config.TwilioAuthToken, "Twilio auth token (overrides $TWILIO_AUTH_TOKEN)"),
		twilioFrom:   flag.String("twilio-from-number", config.TwilioFromNumber, "Twilio sending number (overrides $TWILIO_FROM_NUMBER)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"stateDir", *flags.stateDir,
		"dbDSN_set", *flags.dbDSN != "",
		"inMemory", *flags.inMemory,
		"openaiKeySet", *flags.openaiKey != "",
		"apiAddr", *flags.apiAddr,
		"sessionTTL", *flags.sessionTTL)

	// Follow a state directory override when the DSN is still the default SQLite path
	if *flags.dbDSN == config.DatabaseURL && config.DatabaseURL == filepath.Join(config.StateDir, DefaultDBFileName) && *flags.stateDir != config.StateDir {
		*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("Updated dbDSN based on state directory", "old_state_dir", config.StateDir, "new_state_dir", *flags.stateDir)
	}

	return flags
}

// usesSQLite reports whether sessions will be stored in a local SQLite file.
func usesSQLite(flags Flags) bool {
	return !*flags.inMemory && *flags.dbDSN != "" && store.DetectDSNType(*flags.dbDSN) == store.DriverSQLite
}

// ensureDirectoriesExist creates necessary directories for file-based storage
func ensureDirectoriesExist(flags Flags) error {
	if !usesSQLite(flags) {
		return nil
	}
	dbDir := filepath.Dir(*flags.dbDSN)
	slog.Debug("Creating directory for file-based database", "dir", dbDir)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dbDir)
		return err
	}
	return nil
}

// buildStoreOptions constructs store configuration options
func buildStoreOptions(flags Flags) []store.Option {
	storeOpts := []store.Option{store.WithTTL(*flags.sessionTTL)}
	switch {
	case *flags.inMemory || *flags.dbDSN == "":
		slog.Debug("Using in-memory session store")
	case store.DetectDSNType(*flags.dbDSN) == store.DriverPostgres:
		slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store", "dsn_type", "postgresql", "dsn_set", true)
		storeOpts = append(storeOpts, store.WithPostgresDSN(*flags.dbDSN))
	default:
		slog.Debug("Detected SQLite DSN, configuring SQLite store", "dsn_type", "sqlite", "db_path", *flags.dbDSN)
		storeOpts = append(storeOpts, store.WithSQLiteDSN(*flags.dbDSN))
	}
	return storeOpts
}

// buildGenAIOptions constructs GenAI configuration options
func buildGenAIOptions(flags Flags) []genai.Option {
	var genaiOpts []genai.Option
	if *flags.openaiKey != "" {
		genaiOpts = append(genaiOpts, genai.WithAPIKey(*flags.openaiKey))
	}
	if *flags.openaiModel != "" {
		genaiOpts = append(genaiOpts, genai.WithModel(*flags.openaiModel))
	}
	if *flags.openaiURL != "" {
		genaiOpts = append(genaiOpts, genai.WithBaseURL(*flags.openaiURL))
	}
	if *flags.genaiTimeout > 0 {
		genaiOpts = append(genaiOpts, genai.WithTimeout(*flags.genaiTimeout))
	}
	if *flags.genaiDebug {
		genaiOpts = append(genaiOpts, genai.WithDebugMode(true), genai.WithStateDir(*flags.stateDir))
	}
	return genaiOpts
}

// buildSMSOptions constructs Twilio options; none are returned when the SMS
// channel is not configured at all.
func buildSMSOptions(flags Flags) []sms.Option {
	if *flags.twilioSID == "" && *flags.twilioToken == "" && *flags.twilioFrom == "" {
		slog.Debug("Twilio not configured, SMS channel disabled")
		return nil
	}
	return []sms.Option{
		sms.WithAccountSID(*flags.twilioSID),
		sms.WithAuthToken(*flags.twilioToken),
		sms.WithFromNumber(*flags.twilioFrom),
	}
}

// buildAPIOptions constructs API server configuration options
func buildAPIOptions(flags Flags) []api.Option {
	apiOpts := []api.Option{api.WithSessionTTL(*flags.sessionTTL)}
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	if *flags.publicURL != "" {
		apiOpts = append(apiOpts, api.WithPublicURL(*flags.publicURL))
	}
	if *flags.catalogFile != "" {
		apiOpts = append(apiOpts, api.WithCatalogFile(*flags.catalogFile))
	}
	if usesSQLite(flags) {
		apiOpts = append(apiOpts, api.WithStateDir(filepath.Dir(*flags.dbDSN)))
	}
	return apiOpts
}
