package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vigenere-go/internal/auth"
	"github.com/vigenere-go/internal/config"
	"github.com/vigenere-go/internal/server"
)

func (a *app) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the cipher over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve()
		},
	}
	cmd.Flags().String("addr", "", "listen address")
	cmd.Flags().Int("port", 0, "listen port")
	cmd.Flags().Bool("h2c", false, "enable HTTP/2 cleartext")
	_ = a.v.BindPFlag("server.address", cmd.Flags().Lookup("addr"))
	_ = a.v.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	_ = a.v.BindPFlag("server.enable_h2c", cmd.Flags().Lookup("h2c"))
	return cmd
}

func (a *app) serve() error {
	cfg := a.cfg
	log.Info().
		Str("version", config.Version).
		Str("http_addr", cfg.GetHTTPAddr()).
		Bool("h2c", cfg.Server.EnableH2C).
		Bool("auth", cfg.IsAuthEnabled()).
		Msg("Starting vigenere server")

	srv, err := server.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("Received shutdown signal")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Error during shutdown")
		}
	}()

	if err := srv.Start(); err != nil {
		_ = srv.Shutdown(context.Background())
		return err
	}
	<-done
	return nil
}

func (a *app) tokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token <subject>",
		Short: "Print a bearer token for the HTTP API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.cfg.IsAuthEnabled() {
				return fmt.Errorf("jwt_secret is not configured")
			}
			jwtAuth := auth.NewJWTAuth(a.cfg.JWTSecret, time.Duration(a.cfg.JWTExpire)*time.Hour)
			token, err := jwtAuth.GenerateToken(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, token)
			return nil
		},
	}
}
