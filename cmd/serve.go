package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scrimsight/go-scrim-metrics/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP ingestion API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	db, eng, err := openEngine()
	if err != nil {
		return err
	}
	defer db.Close()

	srv := server.New(eng, db, newStore(), logger, cfg.Workers)
	addr := fmt.Sprintf("%s:%d", cfg.Server.ListenAddr, cfg.Server.HTTPPort)
	logger.Info("listening", "addr", addr)
	return srv.HTTPServer(addr).ListenAndServe()
}
