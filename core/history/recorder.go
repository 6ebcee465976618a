// Package history records which tracks were played.
package history

import (
	"context"
	"sync"
	"time"

	"TemplePlayer/logger"
	"TemplePlayer/model"
)

const queueSize = 32

// Store persists play records. The gorm repository implements it.
type Store interface {
	SavePlay(ctx context.Context, rec *model.PlayRecord) error
	Recent(ctx context.Context, limit int) ([]model.PlayRecord, error)
}

// StateSource publishes player state snapshots.
type StateSource interface {
	SubscribeState(fn func(model.PlayerState)) (unsubscribe func())
}

// Recorder 播放历史记录器
//
// A play is recorded when the status enters playing for a track other than
// the last recorded one. Snapshots arrive on the publisher's goroutine, so
// records are written by a separate worker and dropped if it falls behind.
type Recorder struct {
	store Store
	now   func() time.Time

	mu          sync.Mutex
	lastStatus  model.PlayerStatus
	lastTrackID string
	started     bool
	stopped     bool

	records     chan model.PlayRecord
	unsubscribe func()
	done        chan struct{}
	stopOnce    sync.Once
}

func NewRecorder(store Store) *Recorder {
	return &Recorder{
		store:   store,
		now:     time.Now,
		records: make(chan model.PlayRecord, queueSize),
		done:    make(chan struct{}),
	}
}

// Start subscribes to src and starts writing records.
func (r *Recorder) Start(src StateSource) {
	r.mu.Lock()
	if r.started || r.stopped {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.mu.Unlock()

	go r.write()
	r.unsubscribe = src.SubscribeState(r.observe)
}

// Stop unsubscribes and waits for queued records to be written.
func (r *Recorder) Stop() {
	r.stopOnce.Do(func() {
		if r.unsubscribe != nil {
			r.unsubscribe()
		}
		r.mu.Lock()
		r.stopped = true
		started := r.started
		close(r.records)
		r.mu.Unlock()
		if started {
			<-r.done
		}
	})
}

// Recent lists the latest plays, newest first.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]model.PlayRecord, error) {
	return r.store.Recent(ctx, limit)
}

func (r *Recorder) observe(s model.PlayerState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}
	entered := s.Status == model.StatusPlaying && r.lastStatus != model.StatusPlaying
	r.lastStatus = s.Status
	if !entered || s.CurrentTrack == nil || s.CurrentTrack.ID == r.lastTrackID {
		return
	}
	r.lastTrackID = s.CurrentTrack.ID

	t := s.CurrentTrack
	rec := model.PlayRecord{
		TrackID:    t.ID,
		ProviderID: t.ProviderID,
		Title:      t.Title,
		ArtistName: t.ArtistName,
		AlbumName:  t.AlbumName,
		DurationMs: s.DurationMs,
		PlayedAt:   r.now(),
	}
	select {
	case r.records <- rec:
	default:
		logger.Warn("[History] queue full, dropping play", logger.String("track", t.ID))
	}
}

func (r *Recorder) write() {
	defer close(r.done)
	for rec := range r.records {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := r.store.SavePlay(ctx, &rec); err != nil {
			logger.Error("[History] save failed", logger.String("track", rec.TrackID), logger.ErrorField(err))
		} else {
			logger.Debug("[History] play recorded", logger.String("track", rec.TrackID))
		}
		cancel()
	}
}
