package main

import (
	"sync"
	"time"

	"github.com/mattermost/mattermost/server/public/pluginapi"
)

const (
	// NotificationCacheTTL is how long to remember incident IDs that have
	// already been announced to the channel
	NotificationCacheTTL = 24 * time.Hour

	// NotificationCleanupInterval is how often to clean up expired entries
	NotificationCleanupInterval = 10 * time.Minute
)

// Deduplicator tracks announced incident IDs so snapshot polling, which
// re-delivers every incident on every cycle, never produces duplicate
// channel notifications.
type Deduplicator struct {
	api         *pluginapi.Client
	seen        map[string]time.Time
	mu          sync.RWMutex
	stopCleanup chan struct{}
	cleanupDone chan struct{}
}

// NewDeduplicator creates a new deduplicator and starts the cleanup loop
func NewDeduplicator(api *pluginapi.Client) *Deduplicator {
	d := &Deduplicator{
		api:         api,
		seen:        make(map[string]time.Time),
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}

	go d.cleanupLoop()

	return d
}

// RecordIncident atomically checks if an incident is new and marks it as
// seen if so. Returns true if this is a new incident (successfully
// recorded), false if it's a duplicate.
func (d *Deduplicator) RecordIncident(incidentID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[incidentID]; exists {
		return false // Duplicate
	}

	d.seen[incidentID] = time.Now()
	return true // New incident
}

// cleanupLoop periodically removes expired entries from the cache
func (d *Deduplicator) cleanupLoop() {
	ticker := time.NewTicker(NotificationCleanupInterval)
	defer ticker.Stop()
	defer close(d.cleanupDone)

	for {
		select {
		case <-ticker.C:
			d.cleanup()
		case <-d.stopCleanup:
			return
		}
	}
}

// cleanup removes entries older than NotificationCacheTTL
func (d *Deduplicator) cleanup() {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	expired := 0

	for incidentID, seenTime := range d.seen {
		if now.Sub(seenTime) > NotificationCacheTTL {
			delete(d.seen, incidentID)
			expired++
		}
	}

	if expired > 0 {
		d.api.Log.Debug("Cleaned up expired notification cache entries",
			"expired", expired,
			"remaining", len(d.seen))
	}
}

// Stop stops the cleanup goroutine and waits for it to finish
func (d *Deduplicator) Stop() {
	close(d.stopCleanup)
	<-d.cleanupDone
}
