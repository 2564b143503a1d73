package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/effective-security/moodlemcp/callbacks"
	"github.com/effective-security/moodlemcp/mcp"
	"github.com/effective-security/moodlemcp/mcp/transport/httptransport"
	"github.com/effective-security/moodlemcp/mcp/transport/stdio"
	"github.com/effective-security/xlog"
	"github.com/spf13/cobra"
)

func newServeCommand(c *cli) *cobra.Command {
	var useHTTP bool
	var addr, endpoint string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve MCP over stdio, or HTTP with --http",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.initialize(cmd.ErrOrStderr()); err != nil {
				return err
			}
			if addr != "" {
				c.cfg.HTTP.Addr = addr
			}
			if endpoint != "" {
				c.cfg.HTTP.Endpoint = endpoint
			}

			mode := callbacks.ModeDefault
			if c.verbose {
				mode = callbacks.ModeVerbose
			}
			sp := callbacks.NewScratchpad(mode)
			d, err := c.dispatcher(sp)
			if err != nil {
				return err
			}
			srv := mcp.NewServer(c.cfg.ServerName, Version, d)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.KV(xlog.NOTICE,
				"status", "starting",
				"server", c.cfg.ServerName,
				"version", Version,
				"moodle", c.cfg.MoodleURL,
				"http", useHTTP,
			)
			if useHTTP {
				err = httptransport.NewHTTPTransport(c.cfg.HTTP.Endpoint, srv).
					WithAddr(c.cfg.HTTP.Addr).
					Start(ctx)
			} else {
				err = stdio.New(cmd.InOrStdin(), cmd.OutOrStdout()).Serve(ctx, srv)
			}

			stats, transcript := sp.EndRun()
			logger.KV(xlog.NOTICE, "status", "stopped", "stats", stats.String())
			if c.verbose {
				_, _ = cmd.ErrOrStderr().Write(transcript)
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&useHTTP, "http", false, "Serve stateless HTTP instead of stdio")
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address, overrides http.addr")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "HTTP endpoint path, overrides http.endpoint")
	return cmd
}
