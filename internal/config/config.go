// Package config loads stegonotes.cfg.json through viper and exposes typed sections.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "stegonotes.cfg.json"

// CodecConfig controls how payloads are encoded when placed.
type CodecConfig struct {
	UTF8Text  bool `json:"utf8Text" mapstructure:"utf8Text"`
	ChunkSize int  `json:"chunkSize" mapstructure:"chunkSize"`
}

// ScanConfig controls recovery scans.
type ScanConfig struct {
	Workers  int     `json:"workers" mapstructure:"workers"`
	DefaultX float64 `json:"defaultX" mapstructure:"defaultX"`
	DefaultY float64 `json:"defaultY" mapstructure:"defaultY"`
	Spacing  float64 `json:"spacing" mapstructure:"spacing"`
}

// SQLiteConfig holds file database settings.
type SQLiteConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// DBConfig holds Postgres connection settings.
type DBConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
}

// StorageConfig selects the placement sidecar backend.
type StorageConfig struct {
	Type          string        `json:"type" mapstructure:"type"`
	SQLite        SQLiteConfig  `json:"sqlite" mapstructure:"sqlite"`
	FlushInterval time.Duration `json:"flushInterval" mapstructure:"flushInterval"`
	DB            DBConfig      `json:"db" mapstructure:"db"`
}

// InfluxConfig holds InfluxDB reporter settings.
type InfluxConfig struct {
	Enabled    bool   `json:"enabled" mapstructure:"enabled"`
	URL        string `json:"url" mapstructure:"url"`
	Token      string `json:"token" mapstructure:"token"`
	Org        string `json:"org" mapstructure:"org"`
	Bucket     string `json:"bucket" mapstructure:"bucket"`
	BackupPath string `json:"backupPath" mapstructure:"backupPath"`
}

// GraylogConfig holds GELF shipping settings.
type GraylogConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Address string `json:"address" mapstructure:"address"`
}

// SetDefaults registers the default for every key.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")

	viper.SetDefault("codec.utf8Text", false)
	viper.SetDefault("codec.chunkSize", 3000)

	viper.SetDefault("scan.workers", 4)
	viper.SetDefault("scan.defaultX", 50.0)
	viper.SetDefault("scan.defaultY", 50.0)
	viper.SetDefault("scan.spacing", 24.0)

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.sqlite.path", "./stegonotes.db")
	viper.SetDefault("storage.flushInterval", "2s")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "stegonotes")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.url", "http://localhost:8086")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "stegonotes")
	viper.SetDefault("influx.bucket", "stegonotes")
	viper.SetDefault("influx.backupPath", "./logs/influx_backup.log.gz")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")
}

// Load sets defaults and reads the config file from configDir.
// Defaults stay in effect when the file is missing; the error still reports it.
func Load(configDir string) error {
	SetDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetFloat64 returns a float config value.
func GetFloat64(key string) float64 {
	return viper.GetFloat64(key)
}

// GetDuration returns a duration config value ("2s", "500ms").
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}

func GetCodecConfig() CodecConfig {
	return CodecConfig{
		UTF8Text:  viper.GetBool("codec.utf8Text"),
		ChunkSize: viper.GetInt("codec.chunkSize"),
	}
}

func GetScanConfig() ScanConfig {
	return ScanConfig{
		Workers:  viper.GetInt("scan.workers"),
		DefaultX: viper.GetFloat64("scan.defaultX"),
		DefaultY: viper.GetFloat64("scan.defaultY"),
		Spacing:  viper.GetFloat64("scan.spacing"),
	}
}

// GetStorageConfig returns the storage section; Postgres settings come from the db section.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type:          viper.GetString("storage.type"),
		SQLite:        SQLiteConfig{Path: viper.GetString("storage.sqlite.path")},
		FlushInterval: viper.GetDuration("storage.flushInterval"),
		DB: DBConfig{
			Host:     viper.GetString("db.host"),
			Port:     viper.GetString("db.port"),
			Username: viper.GetString("db.username"),
			Password: viper.GetString("db.password"),
			Database: viper.GetString("db.database"),
		},
	}
}

func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:    viper.GetBool("influx.enabled"),
		URL:        viper.GetString("influx.url"),
		Token:      viper.GetString("influx.token"),
		Org:        viper.GetString("influx.org"),
		Bucket:     viper.GetString("influx.bucket"),
		BackupPath: viper.GetString("influx.backupPath"),
	}
}

func GetGraylogConfig() GraylogConfig {
	return GraylogConfig{
		Enabled: viper.GetBool("graylog.enabled"),
		Address: viper.GetString("graylog.address"),
	}
}
