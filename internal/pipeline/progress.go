// internal/pipeline/progress.go
package pipeline

import (
	"sync"
	"time"

	"github.com/corphon/novelgraph/internal/utils"
)

// ProgressUpdate is one point-in-time progress notification.
type ProgressUpdate struct {
	Progress int    `json:"progress"` // 0-100
	Stage    string `json:"stage"`
	Status   string `json:"status"` // running, completed, failed
}

// ProgressTracker tracks one analysis run's progress and fans updates out
// to subscribers (the websocket handler in package api).
type ProgressTracker struct {
	TaskID      string
	Progress    int
	Stage       string
	Status      string
	StartTime   time.Time
	UpdateTime  time.Time
	Subscribers map[chan ProgressUpdate]bool
	Done        chan struct{}
	mutex       sync.Mutex
}

// ProgressRegistry owns every in-flight ProgressTracker, keyed by task ID.
type ProgressRegistry struct {
	trackers    map[string]*ProgressTracker
	mutex       sync.RWMutex
	cleanup     *time.Ticker
	stopCleanup chan struct{}
}

func safeCloseProgressChan(ch chan ProgressUpdate) {
	defer func() { _ = recover() }()
	close(ch)
}

// NewProgressRegistry creates an empty registry.
func NewProgressRegistry() *ProgressRegistry {
	return &ProgressRegistry{
		trackers:    make(map[string]*ProgressTracker),
		stopCleanup: make(chan struct{}),
	}
}

// CreateTracker creates (or returns the existing) tracker for taskID.
func (r *ProgressRegistry) CreateTracker(taskID string) *ProgressTracker {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if t, exists := r.trackers[taskID]; exists {
		return t
	}

	t := &ProgressTracker{
		TaskID:      taskID,
		Status:      "running",
		StartTime:   time.Now(),
		UpdateTime:  time.Now(),
		Subscribers: make(map[chan ProgressUpdate]bool),
		Done:        make(chan struct{}),
	}
	r.trackers[taskID] = t
	return t
}

// GetTracker looks up a tracker by task ID.
func (r *ProgressRegistry) GetTracker(taskID string) (*ProgressTracker, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	t, ok := r.trackers[taskID]
	return t, ok
}

// Update advances progress monotonically and records the active stage name.
func (t *ProgressTracker) Update(progress int, stage string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if progress > t.Progress {
		t.Progress = progress
	}
	if stage != "" {
		t.Stage = stage
	}
	t.UpdateTime = time.Now()

	t.notify(ProgressUpdate{Progress: t.Progress, Stage: t.Stage, Status: t.Status}, false)
}

// Complete marks the tracker 100% done.
func (t *ProgressTracker) Complete() {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.Progress = 100
	t.Status = "completed"
	t.UpdateTime = time.Now()

	t.notify(ProgressUpdate{Progress: 100, Stage: t.Stage, Status: "completed"}, true)

	select {
	case <-t.Done:
	default:
		close(t.Done)
	}
}

// Fail marks the tracker failed at its current stage.
func (t *ProgressTracker) Fail() {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.Status = "failed"
	t.UpdateTime = time.Now()

	t.notify(ProgressUpdate{Progress: t.Progress, Stage: t.Stage, Status: "failed"}, true)

	select {
	case <-t.Done:
	default:
		close(t.Done)
	}
}

// Subscribe returns a channel of progress updates, buffered so a slow
// reader never blocks the pipeline.
func (t *ProgressTracker) Subscribe() chan ProgressUpdate {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	sub := make(chan ProgressUpdate, 10)
	t.Subscribers[sub] = true
	sub <- ProgressUpdate{Progress: t.Progress, Stage: t.Stage, Status: t.Status}
	return sub
}

// Unsubscribe removes and closes a subscriber channel.
func (t *ProgressTracker) Unsubscribe(sub chan ProgressUpdate) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if _, exists := t.Subscribers[sub]; exists {
		delete(t.Subscribers, sub)
		safeCloseProgressChan(sub)
	}
}

func (t *ProgressTracker) notify(update ProgressUpdate, closeChannels bool) {
	dropped := 0
	for sub := range t.Subscribers {
		select {
		case sub <- update:
		default:
			dropped++
		}
		if closeChannels {
			safeCloseProgressChan(sub)
		}
	}
	if dropped > 0 {
		utils.GetLogger().Warn("progress update dropped", map[string]interface{}{"dropped": dropped})
	}
	if closeChannels {
		t.Subscribers = make(map[chan ProgressUpdate]bool)
	}
}

// StartAutoCleanup periodically evicts trackers that finished (or stalled)
// long enough ago that no one is still watching them.
func (r *ProgressRegistry) StartAutoCleanup() {
	r.cleanup = time.NewTicker(10 * time.Minute)
	ticker, stop := r.cleanup, r.stopCleanup
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.cleanupCompleted(30 * time.Minute)
				r.cleanupAbandoned(2 * time.Hour)
			case <-stop:
				return
			}
		}
	}()
}

// Stop halts the auto-cleanup goroutine.
func (r *ProgressRegistry) Stop() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.stopCleanup != nil {
		select {
		case <-r.stopCleanup:
		default:
			close(r.stopCleanup)
			r.stopCleanup = nil
		}
	}
	if r.cleanup != nil {
		r.cleanup.Stop()
		r.cleanup = nil
	}
}

func (r *ProgressRegistry) cleanupCompleted(maxAge time.Duration) {
	now := time.Now()
	var toDelete []string

	r.mutex.RLock()
	for id, t := range r.trackers {
		t.mutex.Lock()
		done := t.Status == "completed" || t.Status == "failed"
		old := now.Sub(t.UpdateTime) > maxAge
		t.mutex.Unlock()
		if done && old {
			toDelete = append(toDelete, id)
		}
	}
	r.mutex.RUnlock()

	if len(toDelete) > 0 {
		r.mutex.Lock()
		for _, id := range toDelete {
			delete(r.trackers, id)
		}
		r.mutex.Unlock()
	}
}

func (r *ProgressRegistry) cleanupAbandoned(maxAge time.Duration) {
	now := time.Now()
	var toDelete []string

	r.mutex.RLock()
	for id, t := range r.trackers {
		t.mutex.Lock()
		running := t.Status == "running"
		old := now.Sub(t.UpdateTime) > maxAge
		t.mutex.Unlock()
		if running && old {
			t.Fail()
			toDelete = append(toDelete, id)
		}
	}
	r.mutex.RUnlock()

	if len(toDelete) > 0 {
		r.mutex.Lock()
		for _, id := range toDelete {
			delete(r.trackers, id)
		}
		r.mutex.Unlock()
	}
}
