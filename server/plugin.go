package main

import (
	"sync"

	"github.com/mattermost/mattermost/server/public/model"
	"github.com/mattermost/mattermost/server/public/plugin"
	"github.com/mattermost/mattermost/server/public/pluginapi"
	"github.com/pkg/errors"

	"github.com/mattermost/mattermost-plugin-crisiscommander/server/analysis"
	"github.com/mattermost/mattermost-plugin-crisiscommander/server/crisis"
	"github.com/mattermost/mattermost-plugin-crisiscommander/server/feed"
	"github.com/mattermost/mattermost-plugin-crisiscommander/server/incident"
	"github.com/mattermost/mattermost-plugin-crisiscommander/server/poster"
	"github.com/mattermost/mattermost-plugin-crisiscommander/server/store"
)

// Plugin implements the interface expected by the Mattermost server to communicate between the server and plugin processes.
type Plugin struct {
	plugin.MattermostPlugin

	// client is the Mattermost server API client.
	client *pluginapi.Client

	// configurationLock synchronizes access to the configuration.
	configurationLock sync.RWMutex

	// configuration is the active plugin configuration. Consult getConfiguration and
	// setConfiguration for usage.
	configuration *configuration

	// poster posts incident notifications to Mattermost channels.
	poster *poster.Poster

	// deduplicator prevents re-announcing incidents the plugin already posted
	deduplicator *Deduplicator

	// syncLock guards the rebuildable subsystem below. OnConfigurationChange
	// tears the whole pipeline down and recreates it.
	syncLock sync.Mutex

	active      bool
	kvStore     *store.Store
	provider    *analysis.GeminiProvider
	queue       *analysis.Queue
	coordinator *analysis.Coordinator
	crisis      *crisis.Store
	reconciler  *feed.Reconciler
	unsubscribe func()
}

// OnActivate is invoked when the plugin is activated. If an error is returned, the plugin will be deactivated.
func (p *Plugin) OnActivate() error {
	p.client = pluginapi.NewClient(p.API, p.Driver)
	p.deduplicator = NewDeduplicator(p.client)

	config := p.getConfiguration()

	// Ensure bot user exists
	botUsername := config.BotUsername
	if botUsername == "" {
		botUsername = "crisis-commander"
	}
	botDisplayName := config.BotDisplayName
	if botDisplayName == "" {
		botDisplayName = "Crisis Commander"
	}

	botID, err := p.API.EnsureBotUser(&model.Bot{
		Username:    botUsername,
		DisplayName: botDisplayName,
		Description: "Bot for posting crisis incident notifications to Mattermost channels",
	})
	if err != nil {
		return errors.Wrap(err, "failed to ensure bot user")
	}

	p.API.LogInfo("Bot user initialized", "botID", botID, "username", botUsername)

	p.poster = poster.New(p.API, botID)

	p.syncLock.Lock()
	p.active = true
	p.syncLock.Unlock()

	p.startSync(config)

	return nil
}

// OnDeactivate is invoked when the plugin is deactivated.
func (p *Plugin) OnDeactivate() error {
	p.stopSync()

	p.syncLock.Lock()
	p.active = false
	p.syncLock.Unlock()

	if p.deduplicator != nil {
		p.deduplicator.Stop()
	}

	return nil
}

// activated reports whether OnActivate has completed. OnConfigurationChange
// fires before activation during plugin startup and must not build the
// pipeline twice.
func (p *Plugin) activated() bool {
	p.syncLock.Lock()
	defer p.syncLock.Unlock()
	return p.active
}

// startSync builds the full synchronization pipeline from the given
// configuration: durable KV mirror, analysis provider behind the throttle
// queue, the crisis state store, and the feed reconciler feeding it.
// Errors are non-fatal; a failed feed subscription leaves the pipeline
// serving seed data until the next configuration change.
func (p *Plugin) startSync(config *configuration) {
	kvStore := store.New(p.API, p.client.Log, config.cacheRetention())
	provider := analysis.NewGeminiProvider(config.GeminiAPIKey, p.client.Log)
	queue := analysis.NewQueue(p.client.Log, config.requestGap(), config.providerTimeout())
	coordinator := analysis.NewCoordinator(p.client.Log, provider, kvStore, queue)
	crisisStore := crisis.NewStore(p.client.Log, coordinator)

	feedClient := feed.NewClient(config.FeedURL, config.FeedAPIKey, p.client.Log)
	scheduler := feed.NewClusterJobScheduler(p.API)
	reconciler := feed.NewReconciler(p.client.Log, feedClient, kvStore, scheduler, config.pollInterval())

	channelID := config.ChannelID
	unsubscribe, err := reconciler.Subscribe(func(incidents []incident.Incident) {
		crisisStore.SyncIncidents(incidents)
		p.notifyCritical(incidents, channelID)
	})
	if err != nil {
		p.API.LogError("Failed to subscribe to incident feed", "error", err.Error())
	}

	p.syncLock.Lock()
	defer p.syncLock.Unlock()
	p.kvStore = kvStore
	p.provider = provider
	p.queue = queue
	p.coordinator = coordinator
	p.crisis = crisisStore
	p.reconciler = reconciler
	p.unsubscribe = unsubscribe
}

// stopSync tears down the synchronization pipeline. Safe to call when the
// pipeline was never started.
func (p *Plugin) stopSync() {
	p.syncLock.Lock()
	unsubscribe := p.unsubscribe
	queue := p.queue
	provider := p.provider
	p.unsubscribe = nil
	p.queue = nil
	p.provider = nil
	p.kvStore = nil
	p.coordinator = nil
	p.crisis = nil
	p.reconciler = nil
	p.syncLock.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if queue != nil {
		queue.Close()
	}
	if provider != nil {
		provider.Close()
	}
}

// crisisStore returns the live crisis state store, or nil when the pipeline
// is down (mid-reconfiguration or before activation).
func (p *Plugin) crisisStore() *crisis.Store {
	p.syncLock.Lock()
	defer p.syncLock.Unlock()
	return p.crisis
}

// cacheStore returns the live durable store, or nil when the pipeline is down.
func (p *Plugin) cacheStore() *store.Store {
	p.syncLock.Lock()
	defer p.syncLock.Unlock()
	return p.kvStore
}

// notifyCritical announces critical, unresolved incidents that have not been
// posted before to the configured channel. Posting failures are logged and
// the incident stays marked as seen; the feed will not re-announce it.
func (p *Plugin) notifyCritical(incidents []incident.Incident, channelID string) {
	if channelID == "" || p.poster == nil {
		return
	}

	for _, inc := range incidents {
		if inc.Severity != incident.SeverityCritical || inc.Status == incident.StatusResolved {
			continue
		}
		if !p.deduplicator.RecordIncident(inc.ID) {
			continue
		}
		if err := p.poster.PostIncident(inc, channelID); err != nil {
			p.API.LogError("Failed to post critical incident notification",
				"incidentID", inc.ID, "channelID", channelID, "error", err.Error())
		}
	}
}

// See https://developers.mattermost.com/extend/plugins/server/reference/
