// Package model defines the user profile record and its wire shapes.
package model

import (
	"encoding/json"
	"fmt"
)

// DefaultChannels are the behavior channels a fresh profile starts with.
var DefaultChannels = []string{"heart_rate", "blood_oxygen", "sleep_status", "clicks", "plays"}

// UserProfile is the stored record for one user.
type UserProfile struct {
	UID             string              `json:"uid"`
	Embedding       []float64           `json:"embedding"`
	LongTermProfile []WeightedLabel     `json:"long_term_profile"`
	Behaviors       map[string][]Sample `json:"behaviors"`
}

// NewProfile returns an empty profile for uid with the given channels present
// and empty.
func NewProfile(uid string, channels []string) *UserProfile {
	p := &UserProfile{
		UID:             uid,
		Embedding:       []float64{},
		LongTermProfile: []WeightedLabel{},
		Behaviors:       make(map[string][]Sample, len(channels)),
	}
	for _, ch := range channels {
		p.Behaviors[ch] = []Sample{}
	}
	return p
}

// Normalize replaces nil collections with empty ones so the profile encodes
// as arrays and objects rather than null.
func (p *UserProfile) Normalize() {
	if p.Embedding == nil {
		p.Embedding = []float64{}
	}
	if p.LongTermProfile == nil {
		p.LongTermProfile = []WeightedLabel{}
	}
	if p.Behaviors == nil {
		p.Behaviors = map[string][]Sample{}
	}
	for ch, s := range p.Behaviors {
		if s == nil {
			p.Behaviors[ch] = []Sample{}
		}
	}
}

// SampleCount returns the number of samples across all channels.
func (p *UserProfile) SampleCount() int {
	n := 0
	for _, s := range p.Behaviors {
		n += len(s)
	}
	return n
}

// Sample is one timestamped behavior observation. The payload is opaque and
// kept as raw JSON. On the wire a sample is the pair [timestamp, payload].
type Sample struct {
	Timestamp int64
	Value     json.RawMessage
}

// Key returns the ordering key of the sample.
func (s Sample) Key() int64 { return s.Timestamp }

func (s Sample) MarshalJSON() ([]byte, error) {
	v := s.Value
	if len(v) == 0 {
		v = json.RawMessage("null")
	}
	return json.Marshal([]any{s.Timestamp, v})
}

func (s *Sample) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("sample must be a [timestamp, value] pair: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("sample must be a [timestamp, value] pair, got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &s.Timestamp); err != nil {
		return fmt.Errorf("sample timestamp: %w", err)
	}
	s.Value = append(json.RawMessage(nil), pair[1]...)
	return nil
}

// WeightedLabel is one entry of the long-term profile, encoded as
// [label, weight].
type WeightedLabel struct {
	Label  string
	Weight float64
}

func (w WeightedLabel) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{w.Label, w.Weight})
}

func (w *WeightedLabel) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("long-term entry must be a [label, weight] pair: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("long-term entry must be a [label, weight] pair, got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &w.Label); err != nil {
		return fmt.Errorf("long-term label: %w", err)
	}
	if err := json.Unmarshal(pair[1], &w.Weight); err != nil {
		return fmt.Errorf("long-term weight: %w", err)
	}
	return nil
}
