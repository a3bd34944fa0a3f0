/*
Package main is the entry point for the projetISY chat application.

The binary carries both sides of the protocol: `server` runs the UDP chat
server with its HTTP ops API, and `client` runs an interactive terminal
session against a server. Both load configuration, initialize the global
logging system, and handle operating system interrupt signals (SIGINT,
SIGTERM) for a clean shutdown.
*/
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/GuahBy/projetISY/internal/app/directory"
	"github.com/GuahBy/projetISY/internal/app/server"
	"github.com/GuahBy/projetISY/internal/app/session"
	"github.com/GuahBy/projetISY/internal/app/snapshot"
	"github.com/GuahBy/projetISY/internal/app/transport"
	"github.com/GuahBy/projetISY/internal/configs"
	"github.com/GuahBy/projetISY/internal/handler"
	"github.com/GuahBy/projetISY/internal/pkg/audit"
	"github.com/GuahBy/projetISY/internal/pkg/logx"
)

func main() {
	root := &cobra.Command{
		Use:          "projetisy",
		Short:        "Group chat over UDP",
		SilenceUsage: true,
	}
	root.AddCommand(newServerCommand(), newClientCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newServerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Run the chat server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	cfg, err := configs.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logx.InitGlobalLogger(cfg.Environment == "development")
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Int("ops_port", cfg.OpsPort).
		Int("max_clients", cfg.MaxClients).
		Int("max_groups", cfg.MaxGroups).
		Msg("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sink, err := audit.NewSink(cfg.AuditLogPath)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer sink.Close()

	dir := directory.New(cfg.MaxClients, cfg.MaxGroups)

	// Persistence is optional: without a DSN the directory starts empty.
	var store *snapshot.Store
	if cfg.DatabaseDSN != "" {
		store, err = snapshot.NewStore(cfg.DatabaseDSN)
		if err != nil {
			return fmt.Errorf("failed to open snapshot store: %w", err)
		}
		defer store.Close()

		snap, found, cErr := store.Load(ctx)
		if cErr != nil {
			return fmt.Errorf("failed to load snapshot: %s", cErr.Message)
		}
		if found {
			dir.Restore(snap)
			users, groups := dir.Counts()
			logx.Info("Directory restored from snapshot.", "users", users, "groups", groups)
		}
	}

	conn, err := transport.Listen(cfg.Port)
	if err != nil {
		return fmt.Errorf("failed to bind UDP port %d: %w", cfg.Port, err)
	}
	defer conn.Close()

	opsServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.OpsPort),
		Handler:      handler.Router(&handler.AppDeps{Directory: dir, Config: cfg}),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	go func() {
		logx.Info(fmt.Sprintf("Ops API listening on http://localhost:%d", cfg.OpsPort))
		if err := opsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Ops API failed to start")
		}
	}()

	srv := server.New(cfg, dir, conn, sink)
	if err := srv.Run(ctx); err != nil {
		return err
	}

	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := opsServer.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Ops API forced to shutdown")
	}

	if store != nil {
		if cErr := store.Save(shutdownCtx, dir.Snapshot()); cErr != nil {
			logx.Error(fmt.Errorf("%s", cErr.Message), "Failed to save shutdown snapshot")
		}
	}

	logx.Info("Server gracefully stopped.")
	return nil
}

func newClientCommand() *cobra.Command {
	var (
		serverHost string
		serverPort int
	)

	cmd := &cobra.Command{
		Use:   "client <username>",
		Short: "Run an interactive chat session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClient(serverHost, serverPort, args[0])
		},
	}
	cmd.Flags().StringVar(&serverHost, "host", "127.0.0.1", "server host")
	cmd.Flags().IntVar(&serverPort, "port", configs.DefaultPort, "server UDP port")
	return cmd
}

func runClient(host string, port int, username string) error {
	logx.InitGlobalLogger(false)

	serverAddr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return fmt.Errorf("failed to resolve server address: %w", err)
	}

	// Port 0 lets the kernel pick an ephemeral port for this session.
	conn, err := transport.Listen(0)
	if err != nil {
		return fmt.Errorf("failed to open UDP socket: %w", err)
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := session.NewClient(conn, serverAddr, username, os.Stdout)
	if cErr := client.Connect(); cErr != nil {
		return fmt.Errorf("could not connect to %s: %s", serverAddr, cErr.Message)
	}

	fmt.Printf("Connected to %s as %s. Type /help for commands.\n", serverAddr, username)
	return client.Run(ctx, os.Stdin)
}
