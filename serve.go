package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"starmap/internal/api"
	"starmap/internal/db"
	"starmap/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve distance and route queries over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.Banner(version)

		database, err := db.Open(*dbPath)
		if err != nil {
			return err
		}
		defer database.Close()

		cfg := database.LoadConfig()
		if portFlag > 0 {
			cfg.Port = portFlag
		}
		srv := api.NewServer(cfg, database)

		// Load galaxy in background
		go func() {
			g, err := database.LoadGalaxy(cfg.JumpRange)
			if err != nil {
				logger.Error("Galaxy", fmt.Sprintf("Load failed: %v", err))
				return
			}
			if g.Len() == 0 {
				logger.Warn("Galaxy", "Database has no systems, run `starmap import` first")
			}
			srv.SetGalaxy(g)
			logger.Success("Galaxy", fmt.Sprintf("%d systems ready", g.Len()))
		}()

		addr := fmt.Sprintf("127.0.0.1:%d", cfg.Port)
		logger.Server(addr)
		if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	},
}
