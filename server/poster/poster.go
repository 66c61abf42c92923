package poster

import (
	"github.com/mattermost/mattermost/server/public/model"
	"github.com/mattermost/mattermost/server/public/plugin"

	"github.com/mattermost/mattermost-plugin-crisiscommander/server/formatter"
	"github.com/mattermost/mattermost-plugin-crisiscommander/server/hashtag"
	"github.com/mattermost/mattermost-plugin-crisiscommander/server/incident"
)

// Poster posts incident notifications to Mattermost channels.
// This struct is stateless - it only holds immutable configuration (API and botID).
type Poster struct {
	api   plugin.API
	botID string
}

// New creates a new Poster instance.
func New(api plugin.API, botID string) *Poster {
	return &Poster{
		api:   api,
		botID: botID,
	}
}

// PostIncident posts a formatted incident notification to a Mattermost
// channel as a single post.
//
// Parameters:
//   - inc: The incident to post
//   - channelID: The target channel ID
//
// Returns an error if the post fails.
func (p *Poster) PostIncident(inc incident.Incident, channelID string) error {
	attachment := formatter.FormatIncident(inc)

	post := &model.Post{
		UserId:    p.botID,
		ChannelId: channelID,
		Message:   hashtag.Generate(inc),
		Type:      model.PostTypeSlackAttachment,
		Props:     model.StringInterface{},
	}

	model.ParseSlackAttachment(post, []*model.SlackAttachment{attachment})

	_, err := p.api.CreatePost(post)
	if err != nil {
		return err
	}
	return nil
}
