package store

import (
	"context"
	"os"
	"sort"

	"github.com/xielang86/mindora-user/internal/model"
)

// Stats holds database statistics.
type Stats struct {
	DBPath        string         `json:"db_path"`
	DBSizeBytes   int64          `json:"db_size_bytes"`
	TotalProfiles int            `json:"total_profiles"`
	TotalSamples  int            `json:"total_samples"`
	Channels      []ChannelStats `json:"channels"`
}

// ChannelStats holds per-channel counts.
type ChannelStats struct {
	Channel  string `json:"channel"`
	Profiles int    `json:"profiles"`
	Samples  int    `json:"samples"`
}

// Stats returns database statistics.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{DBPath: s.path, Channels: []ChannelStats{}}

	// DB file size
	if info, err := os.Stat(s.path); err == nil {
		st.DBSizeBytes = info.Size()
	}

	byChannel := map[string]*ChannelStats{}
	err := s.Scan(ctx, func(p *model.UserProfile) error {
		st.TotalProfiles++
		for ch, samples := range p.Behaviors {
			cs, ok := byChannel[ch]
			if !ok {
				cs = &ChannelStats{Channel: ch}
				byChannel[ch] = cs
			}
			if len(samples) > 0 {
				cs.Profiles++
			}
			cs.Samples += len(samples)
			st.TotalSamples += len(samples)
		}
		return nil
	})
	if err != nil {
		return st, err
	}

	for _, cs := range byChannel {
		st.Channels = append(st.Channels, *cs)
	}
	sort.Slice(st.Channels, func(i, j int) bool {
		if st.Channels[i].Samples != st.Channels[j].Samples {
			return st.Channels[i].Samples > st.Channels[j].Samples
		}
		return st.Channels[i].Channel < st.Channels[j].Channel
	})

	return st, nil
}
