package feed

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"contentops/internal/domain"
	"contentops/internal/source"
)

const watchURLFormat = "https://www.youtube.com/watch?v=%s"

// channelIDPlaceholder is the sentinel left by the configuration UI when a
// channel was never filled in.
const channelIDPlaceholder = "YOUR_CHANNEL_ID"

// YouTubeAdapter collects a channel's video feed through the same RSS
// mechanism, deriving canonical watch urls from the entry ids.
type YouTubeAdapter struct {
	parser *gofeed.Parser
	logger *slog.Logger
}

var _ source.Adapter = (*YouTubeAdapter)(nil)

// NewYouTubeAdapter wires a feed parser with a bounded-timeout HTTP client.
func NewYouTubeAdapter(client *http.Client, userAgent string, logger *slog.Logger) *YouTubeAdapter {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	parser := gofeed.NewParser()
	parser.Client = client
	if userAgent != "" {
		parser.UserAgent = userAgent
	}
	return &YouTubeAdapter{parser: parser, logger: logger}
}

// Type identifies the adapter inside the registry.
func (a *YouTubeAdapter) Type() domain.SourceType {
	return domain.SourceYouTube
}

// Fetch resolves the channel id, fetches its video feed and maps entries to
// candidates. A missing or placeholder channel id is a per-source failure,
// never a panic.
func (a *YouTubeAdapter) Fetch(ctx context.Context, src domain.DataSource) ([]domain.Candidate, error) {
	channelID := resolveChannelID(src)
	if channelID == "" {
		return nil, fmt.Errorf("source %s: youtube channel id not configured", src.Name)
	}

	feedURL := "https://www.youtube.com/feeds/videos.xml?channel_id=" + url.QueryEscape(channelID)
	parsed, err := a.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse youtube feed for channel %s: %w", channelID, err)
	}

	sourceName := src.Name
	if sourceName == "" {
		sourceName = "YouTube"
	}

	candidates := make([]domain.Candidate, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		videoID := videoIDFromGUID(item.GUID)
		if videoID == "" {
			a.debug("drop youtube entry without video id", "guid", item.GUID)
			continue
		}

		title := item.Title
		if title == "" {
			title = "Untitled"
		}

		candidates = append(candidates, domain.Candidate{
			SourceType:  domain.SourceYouTube,
			SourceName:  sourceName,
			Title:       title,
			URL:         fmt.Sprintf(watchURLFormat, videoID),
			Description: item.Description,
			Author:      itemAuthor(item),
			PublishedAt: itemPublished(item),
			Tags:        []string{"youtube", "video"},
			Metadata: map[string]any{
				"videoId":   videoID,
				"channelId": channelID,
				"thumbnail": thumbnailURL(item),
			},
		})
	}

	a.debug("youtube feed fetched", "channel", channelID, "candidates", len(candidates))
	return candidates, nil
}

// resolveChannelID reads the channel from the source url's channel_id query
// parameter, falling back to the config map. Placeholder values count as
// unconfigured.
func resolveChannelID(src domain.DataSource) string {
	channelID := ""
	if src.URL != "" {
		if parsed, err := url.Parse(src.URL); err == nil {
			channelID = parsed.Query().Get("channel_id")
		}
	}
	if channelID == "" {
		channelID = src.Config["channelId"]
	}
	if channelID == channelIDPlaceholder {
		return ""
	}
	return channelID
}

// videoIDFromGUID extracts the trailing segment of an Atom entry id such as
// "yt:video:dQw4w9WgXcQ".
func videoIDFromGUID(guid string) string {
	if guid == "" {
		return ""
	}
	segments := strings.Split(guid, ":")
	return segments[len(segments)-1]
}

// thumbnailURL digs the media:group thumbnail out of the entry extensions.
func thumbnailURL(item *gofeed.Item) string {
	media, ok := item.Extensions["media"]
	if !ok {
		return ""
	}
	for _, group := range media["group"] {
		for _, thumb := range group.Children["thumbnail"] {
			if u := thumb.Attrs["url"]; u != "" {
				return u
			}
		}
	}
	return ""
}

func (a *YouTubeAdapter) debug(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}
