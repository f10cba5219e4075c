// Package config loads scrambler settings from YAML files and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds every setting a scrambler command can read.
type Config struct {
	Puzzle    PuzzleConfig  `yaml:"puzzle"`
	Pattern   string        `yaml:"pattern"`
	OutputDir string        `yaml:"output_dir"`
	LogLevel  string        `yaml:"log_level"`
	HistoryDB string        `yaml:"history_db"`
	Storage   StorageConfig `yaml:"storage"`
	Kube      KubeConfig    `yaml:"kube"`
}

// PuzzleConfig is the default puzzle grid.
type PuzzleConfig struct {
	Columns int `yaml:"columns"`
	Rows    int `yaml:"rows"`
}

// StorageConfig points at the S3 compatible bucket scrambled images are
// uploaded to.
type StorageConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
}

// KubeConfig describes where remote scramble jobs are created.
type KubeConfig struct {
	Kubeconfig string `yaml:"kubeconfig"`
	Namespace  string `yaml:"namespace"`
	Image      string `yaml:"image"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Puzzle:    PuzzleConfig{Columns: 5, Rows: 5},
		Pattern:   "*",
		LogLevel:  "info",
		HistoryDB: "~/.scrambler/history.db",
		Storage: StorageConfig{
			Endpoint:  "http://localhost:9000",
			Region:    "us-east-1",
			AccessKey: "minioadmin",
			SecretKey: "minioadmin",
			Bucket:    "scrambled-images",
			Prefix:    "scrambled",
		},
		Kube: KubeConfig{
			Namespace: "default",
			Image:     "ghcr.io/phantominthewire/image-scrambler:latest",
		},
	}
}

// Load reads the configuration, then applies environment overrides.
// Search order: customPath -> ~/.scrambler/config.yaml -> ./scrambler.yaml -> defaults.
// Values missing from a file keep their defaults.
func Load(customPath string) (Config, error) {
	cfg := Default()

	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", customPath, err)
		}
		ApplyEnv(&cfg)
		return cfg, nil
	}

	for _, p := range []string{userConfigPath(), "scrambler.yaml"} {
		if p == "" {
			continue
		}
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Default(), fmt.Errorf("failed to parse config %s: %w", p, err)
		}
		break
	}

	ApplyEnv(&cfg)
	return cfg, nil
}

// ApplyEnv overrides cfg with any SCRAMBLER_*, S3_* and KUBE_* variables set.
func ApplyEnv(cfg *Config) {
	cfg.Puzzle.Columns = getEnvInt("SCRAMBLER_COLUMNS", cfg.Puzzle.Columns)
	cfg.Puzzle.Rows = getEnvInt("SCRAMBLER_ROWS", cfg.Puzzle.Rows)
	cfg.Pattern = getEnv("SCRAMBLER_PATTERN", cfg.Pattern)
	cfg.OutputDir = getEnv("SCRAMBLER_OUTPUT_DIR", cfg.OutputDir)
	cfg.LogLevel = getEnv("SCRAMBLER_LOG_LEVEL", cfg.LogLevel)
	cfg.HistoryDB = getEnv("SCRAMBLER_HISTORY_DB", cfg.HistoryDB)

	cfg.Storage.Endpoint = getEnv("S3_ENDPOINT", cfg.Storage.Endpoint)
	cfg.Storage.Region = getEnv("S3_REGION", cfg.Storage.Region)
	cfg.Storage.AccessKey = getEnv("S3_ACCESS_KEY", cfg.Storage.AccessKey)
	cfg.Storage.SecretKey = getEnv("S3_SECRET_KEY", cfg.Storage.SecretKey)
	cfg.Storage.Bucket = getEnv("S3_BUCKET", cfg.Storage.Bucket)
	cfg.Storage.Prefix = getEnv("S3_PREFIX", cfg.Storage.Prefix)

	cfg.Kube.Kubeconfig = getEnv("KUBECONFIG", cfg.Kube.Kubeconfig)
	cfg.Kube.Namespace = getEnv("KUBE_NAMESPACE", cfg.Kube.Namespace)
	cfg.Kube.Image = getEnv("SCRAMBLER_IMAGE", cfg.Kube.Image)
}

// ExpandHome replaces a leading ~ or ~/ with the user's home directory.
// Other users' homes (~name) are left alone.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: cannot expand home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}

func userConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".scrambler", "config.yaml")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
