package store

import (
	"encoding/json"
	"fmt"

	"github.com/xielang86/mindora-user/internal/model"
)

// recordFormat is the version written into every stored record.
const recordFormat = 1

type record struct {
	Format  int                `json:"format"`
	Profile *model.UserProfile `json:"profile"`
}

func encodeProfile(p *model.UserProfile) ([]byte, error) {
	return json.Marshal(record{Format: recordFormat, Profile: p})
}

func decodeProfile(uid string, data []byte) (*model.UserProfile, error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode profile %q: %w", uid, err)
	}
	if r.Format != recordFormat {
		return nil, fmt.Errorf("decode profile %q: unsupported record format %d", uid, r.Format)
	}
	if r.Profile == nil {
		return nil, fmt.Errorf("decode profile %q: empty record", uid)
	}
	r.Profile.Normalize()
	return r.Profile, nil
}
