package main

import (
	"reflect"
	"time"

	"github.com/pkg/errors"
)

// Configuration defaults and bounds
const (
	// MinPollIntervalSeconds is the minimum allowed feed poll interval
	MinPollIntervalSeconds = 10

	// DefaultPollIntervalSeconds is the recommended default poll interval
	DefaultPollIntervalSeconds = 30

	// DefaultCacheRetentionHours is how long cached analysis results and
	// mirrored incidents stay valid
	DefaultCacheRetentionHours = 24

	// DefaultRequestGapMillis is the minimum delay between consecutive
	// provider call starts
	DefaultRequestGapMillis = 500

	// DefaultProviderTimeoutSeconds bounds each provider call inside the
	// throttle worker
	DefaultProviderTimeoutSeconds = 60
)

// configuration captures the plugin's external configuration as exposed in the Mattermost server
// configuration, as well as values computed from the configuration. Any public fields will be
// deserialized from the Mattermost server configuration in OnConfigurationChange.
//
// As plugins are inherently concurrent (hooks being called asynchronously), and the plugin
// configuration can change at any time, access to the configuration must be synchronized. The
// strategy used in this plugin is to guard a pointer to the configuration, and clone the entire
// struct whenever it changes. You may replace this with whatever strategy you choose.
//
// If you add non-reference types to your configuration struct, be sure to rewrite Clone as a deep
// copy appropriate for your types.
type configuration struct {
	// FeedURL is the base URL of the remote crisis incident feed
	FeedURL string `json:"feedUrl"`

	// FeedAPIKey authenticates against the feed
	FeedAPIKey string `json:"feedApiKey"`

	// GeminiAPIKey authenticates against the analysis provider. Empty
	// leaves the provider in a degraded, clearly-unavailable mode.
	GeminiAPIKey string `json:"geminiApiKey"`

	// ChannelID is the channel critical incidents are announced in
	ChannelID string `json:"channelId"`

	// BotUsername overrides the default bot account username
	BotUsername string `json:"botUsername"`

	// BotDisplayName overrides the default bot account display name
	BotDisplayName string `json:"botDisplayName"`

	// PollIntervalSeconds is how often to poll the feed (minimum: MinPollIntervalSeconds)
	PollIntervalSeconds int `json:"pollIntervalSeconds"`

	// CacheRetentionHours is the analysis cache TTL and mirror retention window
	CacheRetentionHours int `json:"cacheRetentionHours"`

	// RequestGapMillis is the minimum gap between provider call starts
	RequestGapMillis int `json:"requestGapMillis"`

	// ProviderTimeoutSeconds is the per-call provider deadline
	ProviderTimeoutSeconds int `json:"providerTimeoutSeconds"`
}

// Clone creates a deep copy of the configuration.
func (c *configuration) Clone() *configuration {
	clone := *c
	return &clone
}

// pollInterval returns the effective feed poll interval.
func (c *configuration) pollInterval() time.Duration {
	seconds := c.PollIntervalSeconds
	if seconds < MinPollIntervalSeconds {
		seconds = DefaultPollIntervalSeconds
	}
	return time.Duration(seconds) * time.Second
}

// cacheRetention returns the effective cache retention window.
func (c *configuration) cacheRetention() time.Duration {
	hours := c.CacheRetentionHours
	if hours <= 0 {
		hours = DefaultCacheRetentionHours
	}
	return time.Duration(hours) * time.Hour
}

// requestGap returns the effective minimum provider call gap.
func (c *configuration) requestGap() time.Duration {
	millis := c.RequestGapMillis
	if millis <= 0 {
		millis = DefaultRequestGapMillis
	}
	return time.Duration(millis) * time.Millisecond
}

// providerTimeout returns the effective per-call provider deadline.
func (c *configuration) providerTimeout() time.Duration {
	seconds := c.ProviderTimeoutSeconds
	if seconds <= 0 {
		seconds = DefaultProviderTimeoutSeconds
	}
	return time.Duration(seconds) * time.Second
}

// getConfiguration retrieves the active configuration under lock, making it safe to use
// concurrently. The active configuration may change underneath the client of this method, but
// the struct returned by this API call is considered immutable.
func (p *Plugin) getConfiguration() *configuration {
	p.configurationLock.RLock()
	defer p.configurationLock.RUnlock()

	if p.configuration == nil {
		return &configuration{}
	}

	return p.configuration
}

// setConfiguration replaces the active configuration under lock.
//
// Do not call setConfiguration while holding the configurationLock, as sync.Mutex is not
// reentrant. In particular, avoid using the plugin API entirely, as this may in turn trigger a
// hook back into the plugin. If that hook attempts to acquire this lock, a deadlock may occur.
//
// This method panics if setConfiguration is called with the existing configuration. This almost
// certainly means that the configuration was modified without being cloned and may result in
// an unsafe access.
func (p *Plugin) setConfiguration(configuration *configuration) {
	p.configurationLock.Lock()
	defer p.configurationLock.Unlock()

	if configuration != nil && p.configuration == configuration {
		// Ignore assignment if the configuration struct is empty. Go will optimize the
		// allocation for same to point at the same memory address, breaking the check
		// above.
		if reflect.ValueOf(*configuration).NumField() == 0 {
			return
		}

		panic("setConfiguration called with the existing configuration")
	}

	p.configuration = configuration
}

// OnConfigurationChange is invoked when configuration changes may have been made.
// The synchronization subsystem is rebuilt from scratch: the reconciler does
// not retry a failed subscription on its own, so teardown-and-recreate is
// also the recovery path after a feed outage.
func (p *Plugin) OnConfigurationChange() error {
	var newConfig = new(configuration)

	// Load the public configuration fields from the Mattermost server configuration.
	if err := p.API.LoadPluginConfiguration(newConfig); err != nil {
		return errors.Wrap(err, "failed to load plugin configuration")
	}

	oldConfig := p.getConfiguration()
	p.setConfiguration(newConfig)

	// Nothing to rebuild before OnActivate has run.
	if !p.activated() {
		return nil
	}

	if *oldConfig == *newConfig {
		return nil
	}

	p.API.LogInfo("Configuration changed, rebuilding synchronization subsystem")
	p.stopSync()
	p.startSync(newConfig)

	return nil
}
