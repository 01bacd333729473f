// Copyright 2024 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
	"github.com/stratastor/logger"

	"github.com/stratastor/deaddiskd/internal/common"
	"github.com/stratastor/deaddiskd/internal/constants"
)

var (
	instance   *Config
	once       sync.Once
	configPath string // tracks where the config was loaded from
)

// Config is the deaddiskd configuration file shape: spec.md's key set plus
// a handful of optional ambient additions (log level, daemonize, discovery
// interval) this build needs that the original tool left to its caller.
type Config struct {
	// Backend names the cluster kind this node belongs to (e.g. "ceph").
	// Selects the concrete ClusterBackend implementation.
	Backend string `mapstructure:"backend"`

	// DBLocation is the filesystem path of the repair store.
	DBLocation string `mapstructure:"db_location"`

	JiraUser            string `mapstructure:"jira_user"`
	JiraPassword        string `mapstructure:"jira_password"`
	JiraHost            string `mapstructure:"jira_host"`
	JiraIssueType       string `mapstructure:"jira_issue_type"`
	JiraPriority        string `mapstructure:"jira_priority"`
	JiraProjectID       string `mapstructure:"jira_project_id"`
	JiraTicketAssignee  string `mapstructure:"jira_ticket_assignee"`

	// Proxy is an optional HTTP(S) proxy URL for the ticketing client.
	Proxy string `mapstructure:"proxy"`

	// LogLevel, Daemonize and DiscoveryInterval are ambient additions not
	// named in spec.md's key set; all optional and defaulted.
	LogLevel          string `mapstructure:"log_level"`
	Daemonize         bool   `mapstructure:"daemonize"`
	DiscoveryInterval string `mapstructure:"discovery_interval"`
}

// LoadConfig loads the configuration with precedence rules: an explicit
// path wins, then the DEADDISKD_CONFIG environment variable, then the
// system default under configDir/config.json.
func LoadConfig(configDir, configFilePath string) *Config {
	once.Do(func() {
		logConfig := logger.Config{LogLevel: "info", EnableSentry: false}
		l, err := logger.NewTag(logConfig, "config")
		if err != nil {
			fmt.Printf("Failed to create logger: %v\n", err)
			os.Exit(1)
		}

		if configDir == "" {
			configDir = constants.SystemConfigDir
		}

		viper.Reset()
		viper.SetConfigType("json")

		systemConfigPath := filepath.Join(configDir, constants.ConfigFileName)

		switch {
		case configFilePath != "":
			configPath = configFilePath
		case os.Getenv("DEADDISKD_CONFIG") != "":
			configPath = os.Getenv("DEADDISKD_CONFIG")
		default:
			configPath = systemConfigPath
		}

		l.Info("using config file", "path", configPath)

		if absPath, err := filepath.Abs(configPath); err == nil {
			configPath = absPath
		}

		viper.SetConfigFile(configPath)

		viper.SetDefault("backend", "ceph")
		viper.SetDefault("db_location", constants.DefaultDBLocation)
		viper.SetDefault("jira_issue_type", "Task")
		viper.SetDefault("jira_priority", "High")
		viper.SetDefault("log_level", "info")
		viper.SetDefault("daemonize", false)
		viper.SetDefault("discovery_interval", "1h")

		viper.AutomaticEnv()
		viper.SetEnvPrefix("DEADDISKD")

		err = viper.ReadInConfig()
		if err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				l.Info("config file not found, creating default", "path", systemConfigPath)

				if err := os.MkdirAll(configDir, 0755); err != nil {
					l.Error("failed to create config directory", "err", err)
				}

				var cfg Config
				if err := viper.Unmarshal(&cfg); err != nil {
					l.Error("failed to unmarshal default configuration", "err", err)
				}
				instance = &cfg
				configPath = systemConfigPath

				if err := SaveConfig(systemConfigPath); err != nil {
					l.Error("failed to save default configuration", "err", err)
				}
			} else {
				l.Error("error reading config file", "err", err)

				var cfg Config
				if err := viper.Unmarshal(&cfg); err != nil {
					l.Error("failed to unmarshal default configuration", "err", err)
				}
				instance = &cfg
			}
		} else {
			l.Info("config file loaded successfully", "path", viper.ConfigFileUsed())
			configPath = viper.ConfigFileUsed()

			var cfg Config
			if err := viper.Unmarshal(&cfg); err != nil {
				l.Error("failed to parse configuration", "err", err)
			} else {
				instance = &cfg
			}
		}

		if instance.JiraPassword == "" {
			l.Warn("jira password is empty, ticketing operations may fail")
		}

		debugCfg := *instance
		debugCfg.JiraPassword = "[REDACTED]"
		l.Debug("loaded configuration", "config", fmt.Sprintf("%+v", debugCfg))
	})

	return instance
}

// SaveConfig persists the current configuration as JSON to the given path,
// or the default system/user location when path is empty.
func SaveConfig(path string) error {
	if path == "" {
		dir, err := common.GetConfigDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
		path = filepath.Join(dir, constants.ConfigFileName)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configJSON, err := json.MarshalIndent(instance, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize configuration: %w", err)
	}

	if err := os.WriteFile(path, configJSON, 0644); err != nil {
		return fmt.Errorf("failed to write configuration to file: %w", err)
	}

	configPath = path
	return nil
}

// GetLoadedConfigPath returns the path of the currently loaded configuration file.
func GetLoadedConfigPath() string {
	return configPath
}

// GetConfig returns the current configuration instance, loading the default
// location the first time it's called.
func GetConfig() *Config {
	if instance == nil {
		return LoadConfig("", "")
	}
	return instance
}

// NewLoggerConfig derives the process-wide logger configuration from cfg.
func NewLoggerConfig(cfg *Config) logger.Config {
	if cfg == nil {
		return logger.Config{LogLevel: "info", EnableSentry: false}
	}
	return logger.Config{LogLevel: cfg.LogLevel, EnableSentry: false}
}
