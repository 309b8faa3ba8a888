package cli

import (
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/xielang86/mindora-user/internal/server"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve profile requests over WebSocket and HTTP",
		Run:   runServe,
	}

	cmd.Flags().String("ws-addr", "", "WebSocket listen address (overrides config)")
	cmd.Flags().String("http-addr", "", "HTTP listen address (overrides config)")
	cmd.Flags().String("log-file", "", "Also append logs to this file (overrides config)")

	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	if v, _ := cmd.Flags().GetString("ws-addr"); v != "" {
		cfg.Server.WSAddr = v
	}
	if v, _ := cmd.Flags().GetString("http-addr"); v != "" {
		cfg.Server.HTTPAddr = v
	}
	if v, _ := cmd.Flags().GetString("log-file"); v != "" {
		cfg.Log.File = v
	}

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			exitErr("open log file", err)
		}
		defer f.Close()
		log.SetOutput(io.MultiWriter(os.Stderr, f))
	}

	s, err := openStore(cfg)
	if err != nil {
		exitErr("open store", err)
	}
	defer func() {
		if err := s.Close(); err != nil {
			log.Printf("[store] close error: %v", err)
		}
	}()
	log.Printf("[store] opened %s", s.Path())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(newRouter(cfg, s), server.Options{
		WSAddr:       cfg.Server.WSAddr,
		HTTPAddr:     cfg.Server.HTTPAddr,
		ReadLimit:    cfg.Server.ReadLimit,
		WriteTimeout: cfg.Server.WriteTimeout,
	})
	if err := srv.Run(ctx); err != nil {
		log.Printf("[server] %v", err)
		stop()
		s.Close()
		os.Exit(1)
	}
}
