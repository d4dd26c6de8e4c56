package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Address         string
		Host            string
		DebugHost       string
		ShutdownTimeout time.Duration
		APIKey          string // bearer key expected by the log collector; empty disables auth
	}

	LogsConfig struct {
		MaxLogs           int
		EnableConsoleLog  bool
		EnablePersistence bool
		EnableRemoteSink  bool
		RemoteEndpoint    string
		APIKey            string
		RemoteTimeout     time.Duration
		StorageKey        string
		SessionKey        string
	}

	RedisConfig struct {
		Address  string
		Password string
		DB       int
	}

	DatabaseConfig struct {
		Engine     string
		Host       string
		Port       string
		Name       string
		User       string
		Password   string
		DisableTLS bool
	}

	StorageConfig struct {
		Driver   string // memory, file, redis, postgres
		Path     string
		Redis    RedisConfig
		Database DatabaseConfig
	}

	SinkConfig struct {
		Driver string // http, rollbar, kafka
	}

	ToastConfig struct {
		Duration time.Duration
	}

	MailConfig struct {
		DefaultFromEmail string
		SupportEmail     string
		SendgridAPIKey   string
	}

	Config struct {
		Env             string
		Debug           bool
		TestMode        bool
		AppName         string
		Build           string
		WorkDir         string
		FrontendBaseURL string
		LoginPath       string
		RollbarToken    string

		Server  ServerConfig
		Logs    LogsConfig
		Storage StorageConfig
		Sink    SinkConfig
		Toast   ToastConfig
		Mail    MailConfig
	}
)

func (db DatabaseConfig) Address() string {
	return db.Host + ":" + db.Port
}

// NewConfig loads the configuration from the environment.
// ENV selects the environment (DEV by default, TEST, QA, PROD) and doubles as the variables prefix,
// e.g. DEV_LOGS_MAXLOGS=50.
func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("testMode", false)
	conf.SetDefault("appName", "Studydash")
	conf.SetDefault("build", "develop")
	conf.SetDefault("workDir", Getwd())
	conf.SetDefault("frontendBaseURL", "http://localhost:3000")
	conf.SetDefault("loginPath", "/login")
	conf.SetDefault("rollbarToken", "")

	conf.SetDefault("server.address", ":8000")
	conf.SetDefault("server.host", "localhost")
	conf.SetDefault("server.debugHost", ":4000")
	conf.SetDefault("server.shutdownTimeout", 5*time.Second)
	conf.SetDefault("server.apiKey", "")

	conf.SetDefault("logs.maxLogs", 100)
	conf.SetDefault("logs.enableConsoleLog", true)
	conf.SetDefault("logs.enablePersistence", true)
	conf.SetDefault("logs.enableRemoteSink", false)
	conf.SetDefault("logs.remoteEndpoint", "")
	conf.SetDefault("logs.apiKey", "")
	conf.SetDefault("logs.remoteTimeout", 10*time.Second)
	conf.SetDefault("logs.storageKey", "error_logs")
	conf.SetDefault("logs.sessionKey", "error_session_id")

	conf.SetDefault("storage.driver", "memory")
	conf.SetDefault("storage.path", filepath.Join(os.TempDir(), "studydash"))
	conf.SetDefault("storage.redis.address", "localhost:6379")
	conf.SetDefault("storage.redis.password", "")
	conf.SetDefault("storage.redis.db", 0)
	conf.SetDefault("storage.database.engine", "postgres")
	conf.SetDefault("storage.database.host", "localhost")
	conf.SetDefault("storage.database.port", "5432")
	conf.SetDefault("storage.database.name", "studydash")
	conf.SetDefault("storage.database.user", "postgres")
	conf.SetDefault("storage.database.password", "")
	conf.SetDefault("storage.database.disableTLS", true)

	conf.SetDefault("sink.driver", "http")
	conf.SetDefault("toast.duration", 5*time.Second)

	conf.SetDefault("mail.defaultFromEmail", "noreply@localhost")
	conf.SetDefault("mail.supportEmail", "support@localhost")
	conf.SetDefault("mail.sendgridAPIKey", "")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	}
	conf.Set("env", env)
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(conf.GetString("workDir"), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	var c Config
	if err := conf.Unmarshal(&c); err != nil {
		log.Fatalf("config.Unmarshal: %v", err)
	}
	return &c
}
