package main

import (
	"github.com/spf13/cobra"

	"taskcalendar/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the HTTP API and the realtime change feed.

Endpoints:
  /health            liveness probe
  /swagger/index.html API documentation
  /ws                websocket change feed (Bearer token or access_token query)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		if port, _ := cmd.Flags().GetString("port"); port != "" {
			cfg.ServerPort = port
		}

		s, err := server.Init(cfg, log)
		if err != nil {
			return err
		}
		return s.Run()
	},
}

func init() {
	serveCmd.Flags().String("port", "", "override SERVER_PORT")
	rootCmd.AddCommand(serveCmd)
}
