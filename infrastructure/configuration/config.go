package configuration

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/krishhhh88/instadrive-backend/domain/apperr"
	"github.com/krishhhh88/instadrive-backend/infrastructure/logger"

	"github.com/spf13/viper"
)

type Config struct {
	Database    Database    `json:"database"`
	App         App         `json:"app"`
	Pubsub      Pubsub      `json:"pubsub"`
	ServiceBus  ServiceBus  `json:"serviceBus"`
	RedisClient RedisClient `json:"redisClient"`
	Logger      Logger      `json:"logger"`
	OAuth       OAuth       `json:"oauth"`
	Instagram   Instagram   `json:"instagram"`
	Cron        Cron        `json:"cron"`
	Security    Security    `json:"security"`
}

type App struct {
	Port        int      `json:"port"`
	SecretKey   string   `json:"secretKey"`
	TLSEnabled  bool     `json:"tlsEnabled"`
	TLSCertFile string   `json:"tlsCertFile"`
	TLSKeyFile  string   `json:"tlsKeyFile"`
	Origins     []string `json:"origins"`
}

type Database struct {
	Vendor string `json:"vendor"` // postgres | mssql
	Psql   Db     `json:"psql"`
	Mssql  Db     `json:"mssql"`
}

type Db struct {
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	SSLMode  string `json:"sslMode"`
}

type Pubsub struct {
	ProjectID string `json:"projectID"`
	Topic     string `json:"topic"`
}

type ServiceBus struct {
	Namespace string `json:"namespace"`
	Queue     string `json:"queue"`
}

type RedisClient struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Password string `json:"password"`
	Username string `json:"username"`
	DB       int    `json:"db"`
}

type Logger struct {
	Format string `json:"format"`
}

// OAuth holds third-party platform OAuth client credentials
type OAuth struct {
	Google   OAuthClient `json:"google"`
	Facebook OAuthClient `json:"facebook"`
}

type OAuthClient struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
	RedirectURI  string `json:"redirectURI"`
	TokenURL     string `json:"tokenURL"`
}

type Instagram struct {
	BusinessAccountID string  `json:"businessAccountId"`
	GraphBaseURL      string  `json:"graphBaseURL"`
	APIVersion        string  `json:"apiVersion"`
	RequestsPerSecond float64 `json:"requestsPerSecond"`
}

type Cron struct {
	Secret                string `json:"secret"`
	InternalEnabled       bool   `json:"internalEnabled"`
	Workers               int    `json:"workers"`
	EntryTimeoutSeconds   int    `json:"entryTimeoutSeconds"`
	TriggerTimeoutSeconds int    `json:"triggerTimeoutSeconds"`
}

type Security struct {
	TokenEncryptionKey string `json:"tokenEncryptionKey"`
}

func (c Cron) EntryTimeout() time.Duration {
	return time.Duration(c.EntryTimeoutSeconds) * time.Second
}

func (c Cron) TriggerTimeout() time.Duration {
	return time.Duration(c.TriggerTimeoutSeconds) * time.Second
}

var C Config

func init() {
	// OS env keeps precedence over both files
	LoadEnvFromFile("config.env", ".env")
	LoadConfig()
	initDatabase(&C)
	initApp(&C)
	initSecrets(&C)
	initPipeline(&C)
}

func LoadConfig() {
	name := getConfig()
	viper.SetConfigName(name)
	viper.SetConfigType("json")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")
	viper.AddConfigPath("../../")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.GetLogger().Warn("Config file not found")
		} else {
			logger.GetLogger().WithField("error", err).Error("Error reading config file")
		}
	}

	logger.GetLogger().WithField("config", name).Info("Config set up successfully")
	if err := viper.Unmarshal(&C); err != nil {
		logger.GetLogger().WithField("error", err).Error("Viper unable to decode into struct")
	}
}

func getConfig() string {
	name := "config"
	env := os.Getenv("ENV")
	if env != "" {
		name = fmt.Sprintf("%s-%s", name, env)
	}
	return name
}

func initDatabase(C *Config) {
	C.Database.Vendor = getConfigValue(C.Database.Vendor, "DB_VENDOR", "postgres")

	C.Database.Psql.Name = getConfigValue(C.Database.Psql.Name, "DB_NAME", "instadrive")
	C.Database.Psql.Host = getConfigValue(C.Database.Psql.Host, "DB_HOST", "localhost")
	C.Database.Psql.Port = getConfigValue(C.Database.Psql.Port, "DB_PORT", "5432")
	C.Database.Psql.User = getConfigValue(C.Database.Psql.User, "DB_USER", "postgres")
	C.Database.Psql.Password = getConfigValue(C.Database.Psql.Password, "DB_PASSWORD", "")
	C.Database.Psql.SSLMode = getConfigValue(C.Database.Psql.SSLMode, "DB_SSLMODE", "disable")

	// Optional MSSQL config via environment variables (for Azure SQL in production)
	C.Database.Mssql.Name = getConfigValue(C.Database.Mssql.Name, "MSSQL_DB_NAME", "instadrive")
	C.Database.Mssql.Host = getConfigValue(C.Database.Mssql.Host, "MSSQL_HOST", "localhost")
	C.Database.Mssql.Port = getConfigValue(C.Database.Mssql.Port, "MSSQL_PORT", "1433")
	C.Database.Mssql.User = getConfigValue(C.Database.Mssql.User, "MSSQL_USER", "sa")
	C.Database.Mssql.Password = getConfigValue(C.Database.Mssql.Password, "MSSQL_PASSWORD", "")

	C.RedisClient.Host = getConfigValue(C.RedisClient.Host, "REDIS_HOST", "")
	C.RedisClient.Port = getConfigValue(C.RedisClient.Port, "REDIS_PORT", "6379")
	C.RedisClient.Password = getConfigValue(C.RedisClient.Password, "REDIS_PASSWORD", "")

	logger.GetLogger().WithFields(map[string]interface{}{
		"vendor":   C.Database.Vendor,
		"psqlHost": C.Database.Psql.Host,
		"mssqlSet": C.Database.Mssql.Password != "",
		"redisSet": C.RedisClient.Host != "",
	}).Info("Database configuration")
}

func initApp(C *Config) {
	// Prefer SECRET_KEY from environment for JWT verification; overrides config file when provided
	if v := os.Getenv("SECRET_KEY"); v != "" {
		C.App.SecretKey = v
	}
	// Port resolution order (env overrides config): APP_PORT -> PORT -> config -> default 10001
	if v := os.Getenv("APP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	} else if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	}
	if C.App.Port == 0 {
		C.App.Port = 10001
	}
	if v := os.Getenv("TLS_ENABLED"); v != "" {
		switch v {
		case "1", "true", "TRUE", "True":
			C.App.TLSEnabled = true
		case "0", "false", "FALSE", "False":
			C.App.TLSEnabled = false
		}
	}
	if C.App.TLSCertFile == "" {
		C.App.TLSCertFile = os.Getenv("TLS_CERT_FILE")
	}
	if C.App.TLSKeyFile == "" {
		C.App.TLSKeyFile = os.Getenv("TLS_KEY_FILE")
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		C.App.Origins = strings.Split(v, ",")
	}
	if len(C.App.Origins) == 0 {
		C.App.Origins = []string{"http://localhost:3000"}
	}
	if C.App.SecretKey == "" {
		logger.GetLogger().Warn("App.SecretKey not set; JWT authentication will fail. Provide SECRET_KEY via environment.")
	}
}

func initSecrets(C *Config) {
	C.OAuth.Google.ClientID = getConfigValue(C.OAuth.Google.ClientID, "GOOGLE_CLIENT_ID", "")
	C.OAuth.Google.ClientSecret = getConfigValue(C.OAuth.Google.ClientSecret, "GOOGLE_CLIENT_SECRET", "")
	C.OAuth.Google.RedirectURI = getConfigValue(C.OAuth.Google.RedirectURI, "GOOGLE_REDIRECT_URI", "")
	C.OAuth.Facebook.ClientID = getConfigValue(C.OAuth.Facebook.ClientID, "FACEBOOK_CLIENT_ID", "")
	C.OAuth.Facebook.ClientSecret = getConfigValue(C.OAuth.Facebook.ClientSecret, "FACEBOOK_CLIENT_SECRET", "")
	C.OAuth.Facebook.RedirectURI = getConfigValue(C.OAuth.Facebook.RedirectURI, "FACEBOOK_REDIRECT_URI", "")

	C.Instagram.BusinessAccountID = getConfigValue(C.Instagram.BusinessAccountID, "INSTAGRAM_BUSINESS_ACCOUNT_ID", "")
	C.Security.TokenEncryptionKey = getConfigValue(C.Security.TokenEncryptionKey, "TOKEN_ENCRYPTION_KEY", "")

	// CRON_SECRET wins; VERCEL_CRON_SECRET kept for deployments migrated from the hosted cron
	C.Cron.Secret = getConfigValue(C.Cron.Secret, "CRON_SECRET", os.Getenv("VERCEL_CRON_SECRET"))

	logger.GetLogger().WithFields(map[string]interface{}{
		"googleClientSet":   C.OAuth.Google.ClientID != "",
		"facebookClientSet": C.OAuth.Facebook.ClientID != "",
		"igAccountSet":      C.Instagram.BusinessAccountID != "",
		"encryptionKeySet":  C.Security.TokenEncryptionKey != "",
		"cronSecretSet":     C.Cron.Secret != "",
	}).Info("Loaded pipeline secrets state")
}

func initPipeline(C *Config) {
	if C.Instagram.GraphBaseURL == "" {
		C.Instagram.GraphBaseURL = "https://graph.facebook.com"
	}
	if C.Instagram.APIVersion == "" {
		C.Instagram.APIVersion = "v16.0"
	}
	if C.Instagram.RequestsPerSecond <= 0 {
		C.Instagram.RequestsPerSecond = 5
	}
	if v := os.Getenv("CRON_INTERNAL"); v == "true" || v == "1" {
		C.Cron.InternalEnabled = true
	}
	if C.Cron.Workers <= 0 {
		C.Cron.Workers = 1
	}
	if C.Cron.EntryTimeoutSeconds <= 0 {
		C.Cron.EntryTimeoutSeconds = 240
	}
	if C.Cron.TriggerTimeoutSeconds <= 0 {
		C.Cron.TriggerTimeoutSeconds = 280
	}
}

// ValidatePipeline reports every setting the publishing pipeline cannot run without.
func (c *Config) ValidatePipeline() error {
	var missing []string
	check := func(v, name string) {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	check(c.OAuth.Google.ClientID, "GOOGLE_CLIENT_ID")
	check(c.OAuth.Google.ClientSecret, "GOOGLE_CLIENT_SECRET")
	check(c.OAuth.Facebook.ClientID, "FACEBOOK_CLIENT_ID")
	check(c.OAuth.Facebook.ClientSecret, "FACEBOOK_CLIENT_SECRET")
	check(c.Cron.Secret, "CRON_SECRET")
	check(c.Security.TokenEncryptionKey, "TOKEN_ENCRYPTION_KEY")
	check(c.Instagram.BusinessAccountID, "INSTAGRAM_BUSINESS_ACCOUNT_ID")
	if len(missing) > 0 {
		return &apperr.ConfigError{Msg: "missing " + strings.Join(missing, ", ")}
	}
	return nil
}

// getConfigValue gets value from environment first, then config, then default
func getConfigValue(configValue, envKey, defaultValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	if configValue != "" && !strings.HasPrefix(configValue, "YOUR_") {
		return configValue
	}
	return defaultValue
}
