package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, 168*time.Hour, cfg.TokenTTL())
	require.Equal(t, 24*time.Hour, cfg.VerificationTTL())
	require.Equal(t, time.Hour, cfg.ReminderInterval())
	require.Equal(t, 30*time.Second, cfg.SSEHeartbeat())

	thresholds, err := cfg.ReminderThresholds()
	require.NoError(t, err)
	require.Equal(t, []int{48, 24, 1}, thresholds)
}

func TestReminderThresholds_Parsing(t *testing.T) {
	cfg := &Config{ReminderThresholdsRaw: " 1, 72 ,24 "}
	thresholds, err := cfg.ReminderThresholds()
	require.NoError(t, err)
	require.Equal(t, []int{72, 24, 1}, thresholds)

	cfg = &Config{ReminderThresholdsRaw: "48,abc"}
	_, err = cfg.ReminderThresholds()
	require.Error(t, err)

	cfg = &Config{ReminderThresholdsRaw: "0"}
	_, err = cfg.ReminderThresholds()
	require.Error(t, err)

	cfg = &Config{ReminderThresholdsRaw: ","}
	_, err = cfg.ReminderThresholds()
	require.Error(t, err)
}

func TestDSN(t *testing.T) {
	cfg := &Config{
		DBDriver:   "mysql",
		DBHost:     "db",
		DBPort:     "3306",
		DBUser:     "u",
		DBPassword: "p",
		DBName:     "taskhub",
	}
	require.Equal(t, "u:p@tcp(db:3306)/taskhub?charset=utf8mb4&parseTime=True&loc=Local", cfg.DSN())

	cfg.DBDriver = "postgres"
	require.Equal(t, "host=db port=3306 user=u password=p dbname=taskhub sslmode=disable", cfg.DSN())
}
