package config // package config loads application configuration from environment variables

import (
	"log"     // log reports configuration problems
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// DefaultJWTSecret is the signing key used when JWT_SECRET is unset. It is
// a known weak value kept for compatibility with existing deployments;
// Load logs a warning whenever it is in effect.
const DefaultJWTSecret = "secret-key"

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable. Strings for identifiers and secrets, ints for
// durations and costs.
type Config struct {
	Env         string // application environment (e.g. "dev", "prod")
	Port        string // HTTP port to listen on
	DBUser      string // database username
	DBPass      string // database password (optional)
	DBHost      string // database host address
	DBPort      string // database port number
	DBName      string // database name
	JWTSecret   string // secret used to sign session JWTs
	TokenTTLMin int    // session token time-to-live in minutes
	BcryptCost  int    // bcrypt cost for password hashing
	BaseURL     string // public base URL embedded in verification links
	AvatarDir   string // local directory for processed avatars
	SMTPHost    string // outbound mail relay host
	SMTPPort    int    // outbound mail relay port
	SMTPUser    string // relay username (empty disables auth)
	SMTPPass    string // relay password
	SMTPFrom    string // From address on outbound mail
	S3Bucket    string // when set, avatars are uploaded to S3 instead of disk
	S3Region    string
	S3Endpoint  string // optional custom endpoint (MinIO-style deployments)
	S3AccessKey string
	S3SecretKey string
	S3PublicURL string // public URL prefix for uploaded avatar objects
}

// Load reads configuration from the environment. Database settings are
// required; everything else has a workable default so the service starts
// in a bare development environment.
func Load() Config {
	cfg := Config{
		Env:         getenv("APP_ENV", "dev"),
		Port:        getenv("APP_PORT", "3000"),
		DBUser:      must("DB_USER"),
		DBPass:      os.Getenv("DB_PASS"), // empty allowed
		DBHost:      must("DB_HOST"),
		DBPort:      must("DB_PORT"),
		DBName:      must("DB_NAME"),
		JWTSecret:   getenv("JWT_SECRET", DefaultJWTSecret),
		TokenTTLMin: atoi(getenv("TOKEN_TTL_MIN", "60")),
		BcryptCost:  atoi(getenv("BCRYPT_COST", "10")),
		BaseURL:     getenv("BASE_URL", "http://localhost:3000"),
		AvatarDir:   getenv("AVATAR_DIR", "public/avatars"),
		SMTPHost:    getenv("SMTP_HOST", "localhost"),
		SMTPPort:    atoi(getenv("SMTP_PORT", "587")),
		SMTPUser:    os.Getenv("SMTP_USER"),
		SMTPPass:    os.Getenv("SMTP_PASS"),
		SMTPFrom:    getenv("SMTP_FROM", "no-reply@localhost"),
		S3Bucket:    os.Getenv("AVATAR_S3_BUCKET"),
		S3Region:    getenv("AVATAR_S3_REGION", "us-east-1"),
		S3Endpoint:  os.Getenv("AVATAR_S3_ENDPOINT"),
		S3AccessKey: os.Getenv("AVATAR_S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("AVATAR_S3_SECRET_KEY"),
		S3PublicURL: os.Getenv("AVATAR_S3_PUBLIC_URL"),
	}
	if cfg.JWTSecret == DefaultJWTSecret {
		// Operational risk carried over from the original deployment: the
		// service still boots on the built-in key instead of refusing to start.
		log.Println("config: JWT_SECRET not set, signing tokens with the built-in development key")
	}
	if cfg.TokenTTLMin <= 0 {
		cfg.TokenTTLMin = 60
	}
	if cfg.BcryptCost <= 0 {
		cfg.BcryptCost = 10
	}
	return cfg
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoi(s string) int {
	i, _ := strconv.Atoi(s)
	return i
}
