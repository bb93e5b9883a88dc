package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const DATABASE_TYPE = "FLOWLINT_DATABASE_TYPE"
const DATABASE_URL = "FLOWLINT_DATABASE_URL"
const DATABASE_SQLLITE_FILE_NAME = "FLOWLINT_DATABASE_SQLLITE_FILE_NAME"
const SERVER_WEB_PORT = "FLOWLINT_SERVER_WEB_PORT"
const SERVER_SHUTDOWN_TIMEOUT = "FLOWLINT_SHUTDOWN_TIMEOUT"
const API_PREFIX = "FLOWLINT_API_PREFIX"
const COMPONENTS_FILE = "FLOWLINT_COMPONENTS_FILE"   //yaml or json catalog of component nodes
const COMPONENTS_WATCH = "FLOWLINT_COMPONENTS_WATCH" //reload the catalog when the file changes
const AUTH_ENABLED = "FLOWLINT_AUTH_ENABLED"
const LOG_LEVEL = "FLOWLINT_LOG_LEVEL"
const CHECK_CONCURRENCY = "FLOWLINT_CHECK_CONCURRENCY" //number of canvases validated in parallel when checking a unik

const DATABASE_TYPE_POSTGRES = "POSTGRES"
const DATABASE_TYPE_MYSQL = "MYSQL"
const DATABASE_TYPE_SQLLITE = "SQLLITE"

var settings = newSettings()

func newSettings() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault(DATABASE_SQLLITE_FILE_NAME, "./flowlint.db")
	v.SetDefault(SERVER_WEB_PORT, "8080")
	v.SetDefault(SERVER_SHUTDOWN_TIMEOUT, "10s")
	v.SetDefault(API_PREFIX, "/api/v1")
	v.SetDefault(COMPONENTS_FILE, "./components.yaml")
	v.SetDefault(COMPONENTS_WATCH, "true")
	v.SetDefault(AUTH_ENABLED, "true")
	v.SetDefault(LOG_LEVEL, "info")
	v.SetDefault(CHECK_CONCURRENCY, "4")
	return v
}

// LoadEnvFile loads KEY=VALUE pairs from the given files into the process
// environment. Variables that are already set win over the file.
func LoadEnvFile(files ...string) error {
	return godotenv.Load(files...)
}

// BindFlag lets a command line flag override the setting when it was set explicitly.
func BindFlag(settingKey string, flag *pflag.Flag) error {
	return settings.BindPFlag(settingKey, flag)
}

// Set overrides a setting for the lifetime of the process.
func Set(settingKey string, value string) {
	settings.Set(settingKey, value)
}

// Reset drops overrides and flag bindings, mostly for tests.
func Reset() {
	settings = newSettings()
}

func GetSystemSettingInteger(settingKey string) int {
	return settings.GetInt(settingKey)
}

func GetSystemSettingBool(settingKey string) bool {
	return settings.GetBool(settingKey)
}

// GetSystemSettingDuration parses values like "10s" or "1m". Zero when unset or invalid.
func GetSystemSettingDuration(settingKey string) time.Duration {
	return settings.GetDuration(settingKey)
}

func GetSystemSettingString(settingKey string) string {
	return strings.TrimSpace(settings.GetString(settingKey))
}
