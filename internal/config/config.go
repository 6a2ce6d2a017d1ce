package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every runtime setting. It is built once at startup and passed
// to the components that need it; nothing reads the environment after Load.
type Config struct {
	Port    string `env:"PORT" envDefault:"8080"`
	GinMode string `env:"GIN_MODE" envDefault:"debug"`

	DBDriver   string `env:"DB_DRIVER" envDefault:"mysql"`
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"3306"`
	DBUser     string `env:"DB_USER" envDefault:"taskuser"`
	DBPassword string `env:"DB_PASSWORD" envDefault:"taskpassword"`
	DBName     string `env:"DB_NAME" envDefault:"taskhub"`

	JWTSecret         string `env:"JWT_SECRET" envDefault:"default-secret-key-change-me"`
	JWTExpiresHours   int    `env:"JWT_EXPIRES_HOURS" envDefault:"168"`
	VerificationHours int    `env:"VERIFICATION_EXPIRES_HOURS" envDefault:"24"`

	ReminderIntervalMinutes int    `env:"REMINDER_INTERVAL_MINUTES" envDefault:"60"`
	ReminderThresholdsRaw   string `env:"REMINDER_THRESHOLD_HOURS" envDefault:"48,24,1"`
	RetentionDays           int    `env:"NOTIFICATION_RETENTION_DAYS" envDefault:"30"`

	SSEHeartbeatSeconds int `env:"SSE_HEARTBEAT_SECONDS" envDefault:"30"`

	MailFrom string `env:"MAIL_FROM" envDefault:"no-reply@taskhub.local"`
}

// Load parses the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if _, err := cfg.ReminderThresholds(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// TokenTTL returns the lifetime of issued tokens and their session rows.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWTExpiresHours) * time.Hour
}

// VerificationTTL returns the lifetime of email verification tokens.
func (c *Config) VerificationTTL() time.Duration {
	return time.Duration(c.VerificationHours) * time.Hour
}

// ReminderInterval returns how often the reminder scheduler ticks.
func (c *Config) ReminderInterval() time.Duration {
	return time.Duration(c.ReminderIntervalMinutes) * time.Minute
}

// SSEHeartbeat returns the idle-connection heartbeat period.
func (c *Config) SSEHeartbeat() time.Duration {
	return time.Duration(c.SSEHeartbeatSeconds) * time.Second
}

// ReminderThresholds parses the configured lead-time thresholds, in hours,
// sorted descending so the widest window is checked first.
func (c *Config) ReminderThresholds() ([]int, error) {
	parts := strings.Split(c.ReminderThresholdsRaw, ",")
	thresholds := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		h, err := strconv.Atoi(p)
		if err != nil || h <= 0 {
			return nil, fmt.Errorf("invalid reminder threshold %q", p)
		}
		thresholds = append(thresholds, h)
	}
	if len(thresholds) == 0 {
		return nil, fmt.Errorf("at least one reminder threshold is required")
	}
	for i := 0; i < len(thresholds); i++ {
		for j := i + 1; j < len(thresholds); j++ {
			if thresholds[j] > thresholds[i] {
				thresholds[i], thresholds[j] = thresholds[j], thresholds[i]
			}
		}
	}
	return thresholds, nil
}

// DSN builds the database connection string for the configured driver.
func (c *Config) DSN() string {
	switch c.DBDriver {
	case "postgres":
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
	default:
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
	}
}
