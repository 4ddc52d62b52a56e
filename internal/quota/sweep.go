package quota

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/truevault/tv-dvr/internal/data"
	"github.com/truevault/tv-dvr/internal/metrics"
)

type SweepStore interface {
	ListCompletedBefore(ctx context.Context, userID uuid.UUID, cutoff time.Time) ([]*data.Recording, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DistinctUsers(ctx context.Context) ([]uuid.UUID, error)
}

// SweepResult summarizes one retention pass.
type SweepResult struct {
	Deleted    int   `json:"deleted_count"`
	FreedBytes int64 `json:"freed_bytes"`
}

// Sweeper deletes completed recordings older than the retention window.
// File removal is best-effort: a clip already gone from disk must not
// keep its row alive.
type Sweeper struct {
	store     SweepStore
	metrics   *metrics.Collector
	clipsDir  string
	thumbsDir string
}

func NewSweeper(store SweepStore, collector *metrics.Collector, clipsDir, thumbsDir string) *Sweeper {
	return &Sweeper{store: store, metrics: collector, clipsDir: clipsDir, thumbsDir: thumbsDir}
}

// Sweep removes one user's expired recordings. Idempotent: a second pass
// over the same window finds nothing.
func (s *Sweeper) Sweep(ctx context.Context, userID uuid.UUID, olderThanDays int) (*SweepResult, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -olderThanDays)

	recs, err := s.store.ListCompletedBefore(ctx, userID, cutoff)
	if err != nil {
		return nil, err
	}

	res := &SweepResult{}
	for _, rec := range recs {
		unlink(filepath.Join(s.clipsDir, rec.Filename))
		if rec.Thumbnail != "" {
			unlink(filepath.Join(s.thumbsDir, rec.Thumbnail))
		} else {
			unlink(filepath.Join(s.thumbsDir, strings.TrimSuffix(rec.Filename, filepath.Ext(rec.Filename))+".jpg"))
		}

		if err := s.store.Delete(ctx, rec.ID); err != nil {
			if err == data.ErrRecordNotFound {
				continue
			}
			return res, err
		}
		res.Deleted++
		if rec.FileSize != nil {
			res.FreedBytes += *rec.FileSize
		}
	}
	s.metrics.SweepCompleted(res.Deleted, res.FreedBytes)
	return res, nil
}

// SweepAll runs the retention pass for every user with recordings.
func (s *Sweeper) SweepAll(ctx context.Context, olderThanDays int) (*SweepResult, error) {
	users, err := s.store.DistinctUsers(ctx)
	if err != nil {
		return nil, err
	}

	total := &SweepResult{}
	for _, userID := range users {
		res, err := s.Sweep(ctx, userID, olderThanDays)
		if err != nil {
			log.Printf("[SWEEP] user %s: %v", userID, err)
			continue
		}
		total.Deleted += res.Deleted
		total.FreedBytes += res.FreedBytes
	}
	return total, nil
}

func unlink(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("[SWEEP] remove %s: %v", path, err)
	}
}
