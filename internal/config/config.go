package config

import (
	"errors"
	"fmt"
	"time"

	pkgconfig "github.com/utafrali/CompanyDirectory/pkg/config"
	"github.com/utafrali/CompanyDirectory/pkg/database"
	"github.com/utafrali/CompanyDirectory/pkg/logger"
	"github.com/utafrali/CompanyDirectory/pkg/tracing"
)

const defaultJWTSecret = "change-this-to-a-secure-secret"

// Mobile mismatch policies applied when the phone identity provider verifies
// a number different from the one on file.
const (
	MismatchIgnore = "ignore"
	MismatchWarn   = "warn"
	MismatchReject = "reject"
)

// Config holds all configuration for the company directory service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"5001"`

	// PostgreSQL
	PostgresHost          string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort          int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser          string `env:"POSTGRES_USER" envDefault:"companydir"`
	PostgresPass          string `env:"POSTGRES_PASSWORD" envDefault:"companydir_secret"`
	PostgresDB            string `env:"DB_NAME" envDefault:"companydir"`
	PostgresSSL           string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	DBMaxConns            int32  `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns            int32  `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetimeMins int    `env:"DB_MAX_CONN_LIFETIME_MINS" envDefault:"60"`
	DBMaxConnIdleTimeMins int    `env:"DB_MAX_CONN_IDLE_TIME_MINS" envDefault:"30"`
	SlowQueryThresholdMS  int    `env:"SLOW_QUERY_THRESHOLD_MS" envDefault:"0"`

	// Sessions and passwords
	JWTSecret        string        `env:"JWT_SECRET" envDefault:"change-this-to-a-secure-secret"`
	JWTSessionExpiry time.Duration `env:"JWT_SESSION_EXPIRY" envDefault:"168h"`
	BcryptCost       int           `env:"BCRYPT_COST" envDefault:"12"`

	// Email verification
	VerifyEmailURL string `env:"VERIFY_EMAIL_URL" envDefault:"http://localhost:5001/api/auth/verify-email"`
	MailerDriver   string `env:"MAILER_DRIVER" envDefault:"log"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Phone identity
	FirebaseAPIKey       string `env:"FIREBASE_API_KEY"`
	FirebaseBaseURL      string `env:"FIREBASE_BASE_URL" envDefault:"https://identitytoolkit.googleapis.com"`
	MobileMismatchPolicy string `env:"MOBILE_MISMATCH_POLICY" envDefault:"warn"`

	// Logo storage
	StorageDriver  string `env:"STORAGE_DRIVER" envDefault:"memory"`
	StorageBaseURL string `env:"STORAGE_BASE_URL" envDefault:"http://localhost:5001"`
	S3Endpoint     string `env:"S3_ENDPOINT"`
	S3Region       string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Bucket       string `env:"S3_BUCKET"`
	S3AccessKey    string `env:"S3_ACCESS_KEY"`
	S3SecretKey    string `env:"S3_SECRET_KEY"`
	S3PublicURL    string `env:"S3_PUBLIC_URL"`

	// Companies
	CompanyEnforceOwnership bool `env:"COMPANY_ENFORCE_OWNERSHIP" envDefault:"false"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Tracing
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load company directory config: %w", err)
	}
	return cfg, nil
}

// Validate checks cross-field invariants after parsing.
func (c *Config) Validate() error {
	var errs []error

	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP port: %d", c.HTTPPort))
	}

	// Outside development a strong, explicitly set secret is required.
	if !c.IsDevelopment() {
		if c.JWTSecret == defaultJWTSecret {
			errs = append(errs, fmt.Errorf("JWT_SECRET must be explicitly set via environment variable in %q mode", c.Environment))
		} else if len(c.JWTSecret) < 32 {
			errs = append(errs, fmt.Errorf("JWT_SECRET must be at least 32 characters long, got %d", len(c.JWTSecret)))
		}
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET must not be empty"))
	}
	if c.JWTSessionExpiry <= 0 {
		errs = append(errs, fmt.Errorf("JWT_SESSION_EXPIRY must be positive, got %s", c.JWTSessionExpiry))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost))
	}

	if _, ok := logger.ParseLevel(c.LogLevel); !ok {
		errs = append(errs, fmt.Errorf("unknown LOG_LEVEL %q", c.LogLevel))
	}

	switch c.MobileMismatchPolicy {
	case MismatchIgnore, MismatchWarn, MismatchReject:
	default:
		errs = append(errs, fmt.Errorf("MOBILE_MISMATCH_POLICY must be ignore, warn or reject, got %q", c.MobileMismatchPolicy))
	}

	switch c.MailerDriver {
	case "log":
	case "kafka":
		if !c.KafkaEnabled {
			errs = append(errs, errors.New("MAILER_DRIVER=kafka requires KAFKA_ENABLED=true"))
		}
	default:
		errs = append(errs, fmt.Errorf("MAILER_DRIVER must be log or kafka, got %q", c.MailerDriver))
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		errs = append(errs, errors.New("KAFKA_BROKERS must list at least one broker"))
	}

	switch c.StorageDriver {
	case "memory":
	case "s3":
		if c.S3Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required when STORAGE_DRIVER=s3"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER must be memory or s3, got %q", c.StorageDriver))
	}

	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		errs = append(errs, fmt.Errorf("OTEL_SAMPLE_RATE must be within [0, 1], got %g", c.OTELSampleRate))
	}

	return errors.Join(errs...)
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Postgres returns the pool configuration.
func (c *Config) Postgres() *database.PostgresConfig {
	return &database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPass,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSL,
		MaxConns:        c.DBMaxConns,
		MinConns:        c.DBMinConns,
		MaxConnLifetime: time.Duration(c.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(c.DBMaxConnIdleTimeMins) * time.Minute,
	}
}

// Tracing returns the OpenTelemetry configuration for serviceName.
func (c *Config) Tracing(serviceName string) tracing.Config {
	tc := tracing.DefaultConfig(serviceName)
	tc.Environment = c.Environment
	tc.Enabled = c.OTELEnabled
	tc.OTLPEndpoint = c.OTELEndpoint
	tc.SampleRate = c.OTELSampleRate
	return tc
}

// SlowQueryThreshold returns the slow query logging threshold, 0 when disabled.
func (c *Config) SlowQueryThreshold() time.Duration {
	return time.Duration(c.SlowQueryThresholdMS) * time.Millisecond
}
