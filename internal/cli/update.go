package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xielang86/mindora-user/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "update [uid]",
		Short: "Merge an update into a profile",
		Long: `Merge an update into a profile, exactly as the update_profile request does.

The update is read as JSON from --file (or stdin with --file -), or built from flags:

  mindora-user update u42 --embedding 0.1,0.2 -b clicks=1758101430:'"checkout"' -b heart_rate=1758101431:72`,
		Args: cobra.MaximumNArgs(1),
		Run:  runUpdate,
	}

	cmd.Flags().String("file", "", "Read an update_profile request from this JSON file (- for stdin)")
	cmd.Flags().String("embedding", "", "Comma-separated embedding values")
	cmd.Flags().StringArrayP("behavior", "b", nil, "Behavior sample as channel=timestamp:json (repeatable)")

	RootCmd.AddCommand(cmd)
}

func runUpdate(cmd *cobra.Command, args []string) {
	file, _ := cmd.Flags().GetString("file")
	emb, _ := cmd.Flags().GetString("embedding")
	behaviors, _ := cmd.Flags().GetStringArray("behavior")

	var req model.UpdateProfileRequest
	if file != "" {
		data, err := readInput(file)
		if err != nil {
			exitErr("read update", err)
		}
		if err := json.Unmarshal(data, &req); err != nil {
			exitErr("parse update", err)
		}
	}
	if len(args) > 0 {
		req.UID = args[0]
	}
	if emb != "" {
		v, err := parseEmbedding(emb)
		if err != nil {
			exitErr("parse --embedding", err)
		}
		req.Embedding = v
	}
	for _, b := range behaviors {
		ch, sample, err := parseBehavior(b)
		if err != nil {
			exitErr("parse --behavior", err)
		}
		if req.Behaviors == nil {
			req.Behaviors = make(map[string][]model.Sample)
		}
		req.Behaviors[ch] = append(req.Behaviors[ch], sample)
	}

	cfg := loadConfig()
	s, err := openStore(cfg)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if !printResponse(newRouter(cfg, s).Update(cmd.Context(), req)) {
		s.Close()
		os.Exit(1)
	}
}

func readInput(name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(name)
}

func parseEmbedding(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// parseBehavior parses channel=timestamp:json. The payload must be valid JSON,
// so strings need their quotes.
func parseBehavior(s string) (string, model.Sample, error) {
	ch, rest, ok := strings.Cut(s, "=")
	if !ok || ch == "" {
		return "", model.Sample{}, fmt.Errorf("%q: want channel=timestamp:json", s)
	}
	tsStr, payload, ok := strings.Cut(rest, ":")
	if !ok {
		return "", model.Sample{}, fmt.Errorf("%q: want channel=timestamp:json", s)
	}
	ts, err := strconv.ParseInt(tsStr, 10, 64)
	if err != nil {
		return "", model.Sample{}, fmt.Errorf("%q: bad timestamp: %w", s, err)
	}
	if !json.Valid([]byte(payload)) {
		return "", model.Sample{}, fmt.Errorf("%q: payload is not valid JSON", s)
	}
	return ch, model.Sample{Timestamp: ts, Value: json.RawMessage(payload)}, nil
}
