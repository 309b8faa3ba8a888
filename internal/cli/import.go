package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xielang86/mindora-user/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import profiles from JSON",
		Long:  "Import profiles from JSON (file or stdin) in the format produced by export. Stored profiles with the same uid are replaced, so run it while the server is stopped.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runImport,
	}

	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) {
	src := "-"
	if len(args) > 0 {
		src = args[0]
	}
	data, err := readInput(src)
	if err != nil {
		exitErr("read input", err)
	}

	var profiles []*model.UserProfile
	if err := json.Unmarshal(data, &profiles); err != nil {
		exitErr("parse json", err)
	}
	for i, p := range profiles {
		if p == nil || p.UID == "" {
			exitErr("import", fmt.Errorf("profile %d has no uid", i))
		}
	}

	cfg := loadConfig()
	s, err := openStore(cfg)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	imported, err := s.Import(cmd.Context(), profiles, cfg.Profile.MaxBehaviorLen)
	if err != nil {
		exitErr("import", err)
	}

	fmt.Printf(`{"ok":true,"imported":%d}`+"\n", imported)
}
