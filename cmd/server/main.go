package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	_ "taskcalendar/docs"
	"taskcalendar/internal/config"
	"taskcalendar/internal/logger"
)

// @title           Task Calendar API
// @version         1.0
// @description     Tasks on a calendar with optimistic updates, contacts, lessons, goals and workspace sharing.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @schemes http

var envFile string

var rootCmd = &cobra.Command{
	Use:           "taskcalendar",
	Short:         "Task calendar API server",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "load variables from this file instead of .env")
}

// setup loads configuration and the root logger shared by every subcommand.
func setup() (*config.Config, *logrus.Entry, error) {
	var files []string
	if envFile != "" {
		files = append(files, envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return nil, nil, err
	}

	log := logger.Setup(cfg.AppEnv, cfg.LogPath)
	if !cfg.EnvFileLoaded {
		log.Warn("no .env file found, using system environment variables")
	}
	return cfg, log, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
