// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// serve_cmd.go - Local HTTP API.
//
// Command: serve
// Short:   Serve the audit API over HTTP
//
// SECURITY: binds to loopback by default. Binding elsewhere without a
// server.token (or AUDITLOGIC_SERVER_TOKEN) logs a warning because anyone
// who can reach the port can spend the API key.
//
// Examples:
//   auditlogic serve
//   auditlogic serve --addr 127.0.0.1:9000
//   auditlogic serve --addr 0.0.0.0:8787 --allow-ip 10.0.0.0/8
//   auditlogic serve --cors-origin https://app.example.com

package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/auditlogic/internal/server"
)

// shutdownTimeout bounds in-flight requests after a signal.
const shutdownTimeout = 15 * time.Second

func (a *App) serveCommand() *cobra.Command {
	var (
		addr        string
		allowIPs    []string
		corsOrigins []string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the audit API over HTTP",
		Long: `Serve the audit API over HTTP until interrupted.

Endpoints:
  POST   /api/audits        audit {"statement": "..."} and save it
  GET    /api/audits        saved audits, newest first
  GET    /api/audits/{id}   one saved audit
  DELETE /api/audits        delete every saved audit
  GET    /health            liveness and credential state
  GET    /stats             request counters`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ctrl, err := a.services(ctx)
			if err != nil {
				return err
			}

			cfg := a.cfg.Server
			if addr != "" {
				cfg.Addr = addr
			}

			srv := server.New(cfg, ctrl, a.store).WithLogger(a.logger.Named("server"))
			if len(allowIPs) > 0 {
				srv = srv.WithAuth(&server.AuthConfig{BearerToken: cfg.Token, AllowedIPs: allowIPs})
			}
			if len(corsOrigins) > 0 {
				cors := server.DefaultCORSConfig()
				cors.AllowedOrigins = corsOrigins
				srv = srv.WithCORS(cors)
			}

			if cfg.Token == "" && !isLoopback(srv.Addr()) {
				a.logger.Warn("serving on a non-loopback address without a token",
					zap.String("addr", srv.Addr()))
			}

			ln, err := net.Listen("tcp", srv.Addr())
			if err != nil {
				return &CommandError{Command: "serve", Action: "listen", Reason: "cannot bind " + srv.Addr(), Err: err}
			}
			fmt.Fprintf(a.Err, "%s Listening on http://%s\n", RenderStatus("ok"), ln.Addr())

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Serve(ln)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return <-errCh
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: server.addr)")
	cmd.Flags().StringSliceVar(&allowIPs, "allow-ip", nil, "Allowed client IPs or CIDR ranges")
	cmd.Flags().StringSliceVar(&corsOrigins, "cors-origin", nil, "Allowed browser origins")
	return cmd
}

// isLoopback reports whether addr binds only to a loopback interface.
func isLoopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
