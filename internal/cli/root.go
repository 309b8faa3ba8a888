// Package cli implements the mindora-user CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xielang86/mindora-user/internal/config"
	"github.com/xielang86/mindora-user/internal/engine"
	"github.com/xielang86/mindora-user/internal/model"
	"github.com/xielang86/mindora-user/internal/router"
	"github.com/xielang86/mindora-user/internal/store"
)

var (
	dbPath     string
	configPath string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "mindora-user",
	Short: "User profile service",
	Long:  "Stores per-user embeddings, long-term labels and time-ordered behavior samples, served over WebSocket and HTTP. SQLite-backed, single binary.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $MINDORA_DB or ~/.mindora-user/profiles.db)")
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: $MINDORA_CONFIG or ~/.mindora-user/config.yaml)")
}

func loadConfig() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		exitErr("load config", err)
	}
	if dbPath != "" {
		cfg.Store.Path = dbPath
	}
	return cfg
}

func openStore(cfg *config.Config) (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(cfg.Store.Path)
}

func newRouter(cfg *config.Config, s store.Store) *router.Router {
	e := engine.New(s, engine.Options{
		MaxBehaviorLen:      cfg.Profile.MaxBehaviorLen,
		EmbeddingReplaceLen: cfg.Profile.EmbeddingReplaceLen,
		DefaultChannels:     cfg.Profile.DefaultChannels,
	})
	return router.New(e, s)
}

// printResponse writes resp to stdout and reports whether it succeeded.
func printResponse(resp model.Response) bool {
	b, err := model.Encode(resp)
	if err != nil {
		exitErr("encode response", err)
	}
	printJSON(json.RawMessage(b))
	return resp.Status() == model.StatusSuccess
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
