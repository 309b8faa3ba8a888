package cli

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all profiles as JSON",
		Long:  "Export every stored profile as a JSON array, ordered by uid. The output can be fed back to import.",
		Run:   runExport,
	}

	cmd.Flags().StringP("out", "o", "", "Write to this file instead of stdout")

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	out, _ := cmd.Flags().GetString("out")

	s, err := openStore(loadConfig())
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	profiles, err := s.ExportAll(cmd.Context())
	if err != nil {
		exitErr("export", err)
	}

	if out == "" {
		printJSON(profiles)
		return
	}
	b, err := json.MarshalIndent(profiles, "", "  ")
	if err != nil {
		exitErr("export", err)
	}
	if err := os.WriteFile(out, append(b, '\n'), 0o644); err != nil {
		exitErr("write export", err)
	}
}
