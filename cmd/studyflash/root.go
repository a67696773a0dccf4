package main

import (
	"github.com/spf13/cobra"
	"github.com/vytor/studyflash/internal/config"
	"github.com/vytor/studyflash/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:          "studyflash",
	Short:        "Flashcard study-session service",
	Long:         "studyflash runs learners through deck and review sessions, saving unfinished sessions so they can be resumed later.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("addr", "", "HTTP listen address (overrides ADDR)")
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides DB_PATH)")
	rootCmd.PersistentFlags().String("log-level", "", "DEBUG, INFO, WARN or ERROR (overrides LOG_LEVEL)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sessionsCmd)
}

// loadConfig reads the environment and applies flag overrides, flags first.
func loadConfig(cmd *cobra.Command) config.Config {
	cfg := config.Load()
	if v, _ := cmd.Flags().GetString("addr"); v != "" {
		cfg.Addr = v
	}
	if v, _ := cmd.Flags().GetString("db"); v != "" {
		cfg.DBPath = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	return cfg
}

func setupLogger(cfg config.Config) *logger.Logger {
	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)
	return log
}
