package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/xielang86/mindora-user/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "get <uid>",
		Short: "Print a stored profile",
		Args:  cobra.ExactArgs(1),
		Run:   runGet,
	}

	RootCmd.AddCommand(cmd)
}

func runGet(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	s, err := openStore(cfg)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	resp := newRouter(cfg, s).Query(cmd.Context(), model.QueryProfileRequest{UID: args[0]})
	if !printResponse(resp) {
		s.Close()
		os.Exit(1)
	}
}
