package stages

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cockroachdb/pebble"

	"github.com/batchline/batchline"
)

// NewDedup creates the dedup-stage: byte records already seen by this stage
// instance (or a previous run sharing the same state directory) are dropped.
// Seen keys live in an embedded pebble store opened in Init and closed in
// Close.
func NewDedup() batchline.Transformer {
	return batchline.FromTypedBytes[batchline.DedupStageConfig](&dedupStage{})
}

type dedupStage struct {
	db *pebble.DB
}

var dedupMarker = []byte{1}

func (s *dedupStage) Init(ctx context.Context, cfg batchline.DedupStageConfig, log *slog.Logger) error {
	db, err := pebble.Open(cfg.StateDir, &pebble.Options{})
	if err != nil {
		return fmt.Errorf("stages: dedup: open %s: %w", cfg.StateDir, err)
	}
	s.db = db
	log.Debug("dedup store opened", "dir", cfg.StateDir)
	return nil
}

func (s *dedupStage) TransformBytes(ctx context.Context, records [][]byte, cfg batchline.DedupStageConfig, log *slog.Logger) ([][]byte, error) {
	if s.db == nil {
		return nil, fmt.Errorf("stages: dedup stage used before Init")
	}

	out := make([][]byte, 0, len(records))
	dropped := 0
	for _, rec := range records {
		_, closer, err := s.db.Get(rec)
		if err == nil {
			closer.Close()
			dropped++
			continue
		}
		if !errors.Is(err, pebble.ErrNotFound) {
			return nil, fmt.Errorf("stages: dedup: lookup: %w", err)
		}
		if err := s.db.Set(rec, dedupMarker, &pebble.WriteOptions{Sync: false}); err != nil {
			return nil, fmt.Errorf("stages: dedup: store: %w", err)
		}
		out = append(out, rec)
	}
	if dropped > 0 {
		log.Debug("dropped duplicate records", "count", dropped)
	}
	return out, nil
}

func (s *dedupStage) Close(ctx context.Context, cfg batchline.DedupStageConfig, log *slog.Logger) error {
	if s.db == nil {
		return nil
	}
	if err := s.db.Flush(); err != nil {
		return err
	}
	err := s.db.Close()
	s.db = nil
	return err
}
