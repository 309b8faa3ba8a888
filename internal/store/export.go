package store

import (
	"context"
	"fmt"

	"github.com/xielang86/mindora-user/internal/merge"
	"github.com/xielang86/mindora-user/internal/model"
)

// Scan calls fn for every stored profile in uid order and stops at the first
// error fn returns.
func (s *SQLiteStore) Scan(ctx context.Context, fn func(*model.UserProfile) error) error {
	rows, err := s.db.QueryContext(ctx, `SELECT uid, data FROM profiles ORDER BY uid`)
	if err != nil {
		return fmt.Errorf("scan profiles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var uid string
		var data []byte
		if err := rows.Scan(&uid, &data); err != nil {
			return err
		}
		p, err := decodeProfile(uid, data)
		if err != nil {
			return err
		}
		if err := fn(p); err != nil {
			return err
		}
	}
	return rows.Err()
}

// ExportAll returns all stored profiles in uid order.
func (s *SQLiteStore) ExportAll(ctx context.Context) ([]*model.UserProfile, error) {
	profiles := []*model.UserProfile{}
	err := s.Scan(ctx, func(p *model.UserProfile) error {
		profiles = append(profiles, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

// Import writes profiles from an export, replacing any stored record with the
// same uid. It is meant for restoring a backup while no server is writing.
// Each channel is sorted by timestamp, repeated timestamps keep their first
// sample, and at most maxBehaviorLen of the newest samples are kept.
func (s *SQLiteStore) Import(ctx context.Context, profiles []*model.UserProfile, maxBehaviorLen int) (int, error) {
	imported := 0
	for _, p := range profiles {
		p.Normalize()
		for ch, samples := range p.Behaviors {
			samples = merge.Dedup(merge.SortByKey(samples, model.Sample.Key), model.Sample.Key)
			p.Behaviors[ch] = merge.KeepLast(samples, maxBehaviorLen)
		}
		if err := s.Put(ctx, p); err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}
