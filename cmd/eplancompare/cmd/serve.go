package cmd

import (
	"log"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/eplancompare/eplancompare/internal/api"
	"github.com/eplancompare/eplancompare/internal/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and web UI",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromEnv()

		mux, err := api.NewMux()
		if err != nil {
			return err
		}

		log.Printf("eplancompare listening on %s", cfg.ListenAddr)
		return http.ListenAndServe(cfg.ListenAddr, mux)
	},
}
