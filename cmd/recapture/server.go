package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/kalambet/recapture/internal/console"
	"github.com/kalambet/recapture/internal/locale"
	"github.com/kalambet/recapture/internal/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local console (JSON API + /metrics) in the foreground",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(errOut, "recapture version %s\n", version)

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		collector := metrics.NewCollector(reg)

		a, err := newServerApp(collector)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		if err := a.dash.Listening.Feed.Mount(ctx); err != nil {
			a.logger.Warn("listening feed unavailable", "error", err)
		}

		h := console.NewHandler(console.Deps{
			Dashboard: a.dash,
			Token:     a.cfg.Console.Token,
			Gatherer:  reg,
			Logger:    a.logger,
		})
		addr := fmt.Sprintf("127.0.0.1:%d", a.cfg.Console.Port)
		return console.Serve(ctx, addr, h)
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the dashboard as MCP tools over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		store, err := a.initLocale()
		if err != nil {
			return err
		}
		defer store.Close()

		s := console.NewMCPServer(console.MCPDeps{
			Dashboard: a.dash,
			Language:  locale.Current,
		})
		stdio := server.NewStdioServer(s)
		return stdio.Listen(cmd.Context(), os.Stdin, os.Stdout)
	},
}
