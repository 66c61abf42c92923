package feed

import (
	"fmt"
	"sync"
	"time"

	"github.com/mattermost/mattermost/server/public/pluginapi"
	"github.com/mattermost/mattermost/server/public/pluginapi/cluster"

	"github.com/mattermost/mattermost-plugin-crisiscommander/server/incident"
)

// SnapshotFetcher is an interface for fetching incident snapshots from the
// remote feed.
type SnapshotFetcher interface {
	FetchSnapshot() (*SnapshotResponse, error)
	SeedIfEmpty(seed []incident.Incident) error
}

// SnapshotStore is the durable mirror the reconciler reads through on cold
// start and writes through on every live snapshot.
type SnapshotStore interface {
	GetIncidents() ([]incident.Incident, error)
	PutIncidents(incidents []incident.Incident) error
}

// UpdateFunc receives the current full incident snapshot on every change.
type UpdateFunc func(incidents []incident.Incident)

// Reconciler keeps consumers supplied with the current incident snapshot.
// It reads the durable mirror for an immediate, possibly-stale cold-start
// render, then polls the remote feed for live replacement snapshots, falling
// back to the fixed seed set when the feed is empty or unreachable.
type Reconciler struct {
	log       pluginapi.LogService
	client    SnapshotFetcher
	store     SnapshotStore
	scheduler JobScheduler
	interval  time.Duration

	mu            sync.Mutex
	onUpdate      UpdateFunc
	job           Job
	closed        bool
	degraded      bool
	seedAttempted bool
}

// NewReconciler creates a reconciler. Polling starts on Subscribe.
func NewReconciler(
	log pluginapi.LogService,
	client SnapshotFetcher,
	store SnapshotStore,
	scheduler JobScheduler,
	interval time.Duration,
) *Reconciler {
	return &Reconciler{
		log:       log,
		client:    client,
		store:     store,
		scheduler: scheduler,
		interval:  interval,
	}
}

// Subscribe registers the consumer callback and starts the feed poll job.
// If the durable mirror holds incidents, onUpdate fires immediately with
// that snapshot before any network round-trip. The returned unsubscribe
// function is safe to call multiple times; updates arriving after teardown
// are no-ops.
func (r *Reconciler) Subscribe(onUpdate UpdateFunc) (func(), error) {
	r.mu.Lock()
	if r.onUpdate != nil {
		r.mu.Unlock()
		return nil, fmt.Errorf("reconciler already has a subscriber")
	}
	r.onUpdate = onUpdate
	r.mu.Unlock()

	// Cold start: serve the cached mirror immediately if it has anything.
	cached, err := r.store.GetIncidents()
	if err != nil {
		r.log.Warn("Cold-start read of durable mirror failed", "error", err.Error())
	} else if len(cached) > 0 {
		r.log.Info("Serving cached incidents while feed subscription starts", "count", len(cached))
		r.deliver(cached)
	}

	job, err := r.scheduler.Schedule("crisis_feed_poll", r.nextWaitInterval, r.run)
	if err != nil {
		// Subscription setup failed: fall back to the seed set and stay in
		// degraded, non-live mode. The caller may tear down and recreate the
		// reconciler to retry.
		r.log.Error("Failed to schedule feed poll job, falling back to seed incidents", "error", err.Error())
		r.mu.Lock()
		r.degraded = true
		r.mu.Unlock()
		r.deliver(incident.SeedIncidents())
		return r.unsubscribe, nil
	}

	r.mu.Lock()
	if r.closed {
		// Unsubscribed while the job was being scheduled.
		r.mu.Unlock()
		if closeErr := job.Close(); closeErr != nil {
			r.log.Warn("Failed to close feed poll job after teardown", "error", closeErr.Error())
		}
		return r.unsubscribe, nil
	}
	r.job = job
	r.mu.Unlock()

	r.log.Info("Feed subscription started", "interval", r.interval)

	return r.unsubscribe, nil
}

// Degraded reports whether the reconciler has fallen back to non-live mode.
func (r *Reconciler) Degraded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.degraded
}

// nextWaitInterval is called by the cluster job scheduler to determine how
// long to wait until the next poll. The first run executes immediately.
func (r *Reconciler) nextWaitInterval(now time.Time, metadata cluster.JobMetadata) time.Duration {
	if metadata.LastFinished.IsZero() {
		return 0
	}

	sinceLastFinished := now.Sub(metadata.LastFinished)
	if sinceLastFinished < r.interval {
		return r.interval - sinceLastFinished
	}

	return 0
}

// run executes one poll cycle: fetch the full replacement snapshot,
// normalize it, substitute the seed set if it is empty, deliver it, and
// write it through to the durable mirror.
func (r *Reconciler) run() {
	snapshot, err := r.client.FetchSnapshot()
	if err != nil {
		r.log.Error("Feed snapshot fetch failed, falling back to seed incidents", "error", err.Error())
		r.deliver(incident.SeedIncidents())
		// No automatic retry: stop the poll job and stay degraded until the
		// consumer tears the reconciler down and recreates it.
		// Halt in a goroutine because run is invoked by the job itself.
		go r.halt()
		return
	}

	if len(snapshot.Incidents) == 0 {
		r.log.Warn("Feed returned an empty snapshot, substituting seed incidents")
		r.maybeSeedRemote()
		r.deliver(incident.SeedIncidents())
		return
	}

	incidents := make([]incident.Incident, 0, len(snapshot.Incidents))
	for _, raw := range snapshot.Incidents {
		incidents = append(incidents, raw.Normalize())
	}

	r.deliver(incidents)

	// Best-effort write-through; failures are logged, never surfaced.
	go func() {
		if err := r.store.PutIncidents(incidents); err != nil {
			r.log.Warn("Failed to write incidents through to durable mirror", "error", err.Error())
		}
	}()
}

// maybeSeedRemote attempts the one-time seed write-back to the remote feed.
// The client re-confirms the feed is empty before writing, so concurrent
// clients cannot double-seed.
func (r *Reconciler) maybeSeedRemote() {
	r.mu.Lock()
	if r.seedAttempted {
		r.mu.Unlock()
		return
	}
	r.seedAttempted = true
	r.mu.Unlock()

	go func() {
		if err := r.client.SeedIfEmpty(incident.SeedIncidents()); err != nil {
			r.log.Warn("Seed write-back to remote feed failed", "error", err.Error())
		}
	}()
}

// deliver invokes the subscriber callback unless the reconciler has been
// torn down. A snapshot arriving after unsubscribe is dropped.
func (r *Reconciler) deliver(incidents []incident.Incident) {
	r.mu.Lock()
	if r.closed || r.onUpdate == nil {
		r.mu.Unlock()
		return
	}
	onUpdate := r.onUpdate
	r.mu.Unlock()

	onUpdate(incidents)
}

// halt stops the poll job and marks the reconciler degraded.
func (r *Reconciler) halt() {
	r.mu.Lock()
	job := r.job
	r.job = nil
	r.degraded = true
	r.mu.Unlock()

	if job != nil {
		if err := job.Close(); err != nil {
			r.log.Warn("Failed to close feed poll job", "error", err.Error())
		}
	}
}

// unsubscribe tears the subscription down. Safe to call multiple times.
func (r *Reconciler) unsubscribe() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	job := r.job
	r.job = nil
	r.mu.Unlock()

	if job != nil {
		if err := job.Close(); err != nil {
			r.log.Warn("Failed to close feed poll job", "error", err.Error())
		}
	}

	r.log.Info("Feed subscription stopped")
}
