// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the lms-sync CLI. It mirrors the
// courses a user is enrolled in onto the local filesystem and keeps PDF
// renditions of the downloaded documents.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/lms-sync/internal/secrets"
	"github.com/pdiddy/lms-sync/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

const (
	defaultUserAgent  = "lms-sync/0.1"
	defaultHistoryDir = ".lms-sync"
	secretsDir        = ".secrets/"
	envFile           = ".env"
)

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns the secret value for key if it exists, or fallback otherwise.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the lms-sync CLI.
var rootCmd = &cobra.Command{
	Use:   "lms-sync",
	Short: "Mirror LMS course content to local folders with PDF renditions",
	Long: `lms-sync downloads the files, module items, and pages of the courses
you are enrolled in, skipping anything whose local copy is already current.
Office documents, plain text, and pages get a PDF rendition under each
destination's PDF_Versions/ directory.

Credentials come from ACCESS_TOKEN and BASE_URL (process environment, a .env
file, lms-sync.yaml, or .secrets/access-token and .secrets/base-url). Which
courses are synced, and where, is controlled by downSubjects.txt.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(secretsDir)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./lms-sync.yaml or ~/.config/lms-sync/config.yaml)")
	rootCmd.PersistentFlags().String("env-file", envFile, "dotenv file with ACCESS_TOKEN and BASE_URL")
	rootCmd.PersistentFlags().String("history-dir", defaultHistoryDir, "directory holding the run-history database")
	rootCmd.PersistentFlags().Duration("timeout", 0, "HTTP request timeout (0 = none)")
	rootCmd.PersistentFlags().Int("max-retries", 0, "backoff retries on HTTP 429 (0 = send each request once)")
	rootCmd.PersistentFlags().String("office-binary", "", "office suite binary (default: detect soffice, then libreoffice)")
	rootCmd.PersistentFlags().String("wkhtmltopdf", "", "wkhtmltopdf binary (default: look up on PATH)")

	for key, flag := range map[string]string{
		"history_dir":      "history-dir",
		"timeout":          "timeout",
		"max_retries":      "max-retries",
		"office_binary":    "office-binary",
		"wkhtmltopdf_path": "wkhtmltopdf",
	} {
		_ = viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag))
	}
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("lms-sync")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "lms-sync"))
		}
	}

	viper.SetEnvPrefix("LMS_SYNC")
	viper.AutomaticEnv()
	// The unprefixed names are what the LMS documentation tells users to export.
	_ = viper.BindEnv("access_token", "LMS_SYNC_ACCESS_TOKEN", "ACCESS_TOKEN")
	_ = viper.BindEnv("base_url", "LMS_SYNC_BASE_URL", "BASE_URL")

	viper.SetDefault("convert", true)
	viper.SetDefault("history_max_results", 50)

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	dotenv, _ := rootCmd.PersistentFlags().GetString("env-file")
	loadDotEnv(viper.GetViper(), dotenv)
}

// loadDotEnv reads KEY=value pairs from path and installs them as defaults
// on v, so the process environment and config file still take precedence.
// A missing file is not an error.
func loadDotEnv(v *viper.Viper, path string) {
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}

	env := viper.New()
	env.SetConfigFile(path)
	env.SetConfigType("env")
	if err := env.ReadInConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: reading %s: %v\n", path, err)
		return
	}
	for _, key := range env.AllKeys() {
		name := strings.TrimPrefix(key, "lms_sync_")
		v.SetDefault(name, env.Get(key))
	}
}

// clientConfig resolves the LMS endpoint and credentials.
func clientConfig() (types.ClientConfig, error) {
	token := secretDefault(secrets.AccessTokenKey, viper.GetString("access_token"))
	baseURL := secretDefault(secrets.BaseURLKey, viper.GetString("base_url"))
	if token == "" {
		return types.ClientConfig{}, fmt.Errorf("ACCESS_TOKEN is not set (environment, %s, lms-sync.yaml, or %s%s)",
			envFile, secretsDir, secrets.AccessTokenKey)
	}
	if baseURL == "" {
		return types.ClientConfig{}, fmt.Errorf("BASE_URL is not set (environment, %s, lms-sync.yaml, or %s%s)",
			envFile, secretsDir, secrets.BaseURLKey)
	}

	return types.ClientConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   viper.GetDuration("timeout"),
			UserAgent: defaultUserAgent,
		},
		BaseURL:     baseURL,
		AccessToken: token,
		MaxRetries:  viper.GetInt("max_retries"),
	}, nil
}

func historyConfig() types.HistoryConfig {
	dir := viper.GetString("history_dir")
	if dir == "" {
		dir = defaultHistoryDir
	}
	return types.HistoryConfig{
		Dir:        dir,
		MaxResults: viper.GetInt("history_max_results"),
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
