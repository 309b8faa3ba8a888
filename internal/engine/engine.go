// Package engine merges partial profile updates into stored profiles.
//
// Every update is a full read-merge-write of a single uid's record, run while
// holding that uid's lock. Updates to different uids never wait on each other.
// The engine keeps no profile state between calls.
package engine

import (
	"context"
	"fmt"
	"log"
	"maps"
	"slices"

	"github.com/xielang86/mindora-user/internal/merge"
	"github.com/xielang86/mindora-user/internal/model"
	"github.com/xielang86/mindora-user/internal/store"
)

const (
	DefaultMaxBehaviorLen      = 1024
	DefaultEmbeddingReplaceLen = 16
)

// Options configures merge policy.
type Options struct {
	// MaxBehaviorLen caps the samples kept per channel; the oldest go first.
	MaxBehaviorLen int
	// EmbeddingReplaceLen is the length an incoming embedding must exceed to
	// replace a non-empty stored one.
	EmbeddingReplaceLen int
	// DefaultChannels are created empty on a fresh profile.
	DefaultChannels []string
}

// DefaultOptions returns the default merge policy.
func DefaultOptions() Options {
	return Options{
		MaxBehaviorLen:      DefaultMaxBehaviorLen,
		EmbeddingReplaceLen: DefaultEmbeddingReplaceLen,
		DefaultChannels:     slices.Clone(model.DefaultChannels),
	}
}

// Engine applies updates to profiles held in a Store.
type Engine struct {
	store store.Store
	opts  Options
	locks *keyLock
}

// New returns an Engine writing through s. Zero option fields take their
// defaults.
func New(s store.Store, opts Options) *Engine {
	def := DefaultOptions()
	if opts.MaxBehaviorLen <= 0 {
		opts.MaxBehaviorLen = def.MaxBehaviorLen
	}
	if opts.EmbeddingReplaceLen <= 0 {
		opts.EmbeddingReplaceLen = def.EmbeddingReplaceLen
	}
	if opts.DefaultChannels == nil {
		opts.DefaultChannels = def.DefaultChannels
	}
	return &Engine{store: s, opts: opts, locks: newKeyLock()}
}

// Update merges req into the stored profile for req.UID, creating the profile
// if none exists. On error nothing was written.
func (e *Engine) Update(ctx context.Context, req model.UpdateProfileRequest) error {
	if req.UID == "" {
		return ErrInvalidUID
	}

	unlock, err := e.locks.Lock(ctx, req.UID)
	if err != nil {
		return fmt.Errorf("wait for profile %q: %w", req.UID, err)
	}
	defer unlock()

	cur, ok, err := e.store.Get(ctx, req.UID)
	if err != nil {
		return &StorageError{Op: "get", UID: req.UID, Err: err}
	}
	if !ok {
		cur = model.NewProfile(req.UID, e.opts.DefaultChannels)
	}

	next := e.apply(cur, req)
	if err := e.store.Put(ctx, next); err != nil {
		return &StorageError{Op: "put", UID: req.UID, Err: err}
	}
	return nil
}

// apply returns cur with req merged in. cur and req are left untouched.
func (e *Engine) apply(cur *model.UserProfile, req model.UpdateProfileRequest) *model.UserProfile {
	next := &model.UserProfile{
		UID:             cur.UID,
		Embedding:       cur.Embedding,
		LongTermProfile: cur.LongTermProfile,
		Behaviors:       maps.Clone(cur.Behaviors),
	}
	if next.Behaviors == nil {
		next.Behaviors = make(map[string][]model.Sample, len(req.Behaviors))
	}

	// Short embeddings are placeholders and must not clobber a fuller vector.
	if len(req.Embedding) > e.opts.EmbeddingReplaceLen || len(cur.Embedding) == 0 {
		next.Embedding = slices.Clone(req.Embedding)
	}

	// TODO: merge incoming long-term weights once the weighting rule is agreed;
	// until then the stored long-term profile is kept as is.
	if len(req.LongTermProfile) > 0 {
		log.Printf("[engine] uid=%s: ignoring %d long_term_profile entries", req.UID, len(req.LongTermProfile))
	}

	for ch, incoming := range req.Behaviors {
		batch := merge.Dedup(merge.SortByKey(incoming, model.Sample.Key), model.Sample.Key)
		merged := batch
		if stored, ok := cur.Behaviors[ch]; ok {
			merged = merge.Sorted(stored, batch, model.Sample.Key)
		}
		next.Behaviors[ch] = merge.KeepLast(merged, e.opts.MaxBehaviorLen)
	}

	next.Normalize()
	return next
}
