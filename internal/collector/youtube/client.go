package youtube

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"coursespider/internal/models"
	"coursespider/shared/config"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// Client wraps the YouTube Data API v3 calls the collector needs: playlist
// search, playlist items, batched video detail and channel detail. Every
// method maps one quota-costed API call; pagination is left to the caller so
// quota accounting stays exact.
type Client struct {
	service *youtube.Service
}

// VideoBatchSize is the API's cap on ids per videos.list call.
const VideoBatchSize = 50

func NewClient(ctx context.Context, cfg *config.YouTubeConfig) (*Client, error) {
	var opts []option.ClientOption
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	} else {
		httpClient, err := oauthClient(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to set up OAuth client: %w", err)
		}
		opts = append(opts, option.WithHTTPClient(httpClient))
	}

	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	return &Client{service: service}, nil
}

// SearchPage holds one page of playlist search results.
type SearchPage struct {
	Playlists     []models.RawPlaylist
	NextPageToken string
}

// SearchPlaylists fetches one page of playlists matching the keyword.
// An empty pageToken requests the first page.
func (c *Client) SearchPlaylists(ctx context.Context, keyword, categoryHint, pageToken string, maxResults int64) (*SearchPage, error) {
	call := c.service.Search.List([]string{"snippet"}).
		Q(keyword).
		Type("playlist").
		Order("relevance").
		MaxResults(maxResults).
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	resp, err := call.Do()
	if err != nil {
		return nil, err
	}

	page := &SearchPage{NextPageToken: resp.NextPageToken}
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.PlaylistId == "" || item.Snippet == nil {
			continue
		}
		pl := models.RawPlaylist{
			ID:           item.Id.PlaylistId,
			Title:        item.Snippet.Title,
			Description:  item.Snippet.Description,
			ChannelID:    item.Snippet.ChannelId,
			ChannelTitle: item.Snippet.ChannelTitle,
			PublishedAt:  item.Snippet.PublishedAt,
			CategoryHint: categoryHint,
		}
		if item.Snippet.Thumbnails != nil && item.Snippet.Thumbnails.High != nil {
			pl.Thumbnail = item.Snippet.Thumbnails.High.Url
		}
		page.Playlists = append(page.Playlists, pl)
	}
	return page, nil
}

// PlaylistItemsPage holds one page of ordered video ids for a playlist.
type PlaylistItemsPage struct {
	VideoIDs      []string
	NextPageToken string
}

// PlaylistItems fetches one page of a playlist's video ids, in playlist
// order.
func (c *Client) PlaylistItems(ctx context.Context, playlistID, pageToken string) (*PlaylistItemsPage, error) {
	call := c.service.PlaylistItems.List([]string{"contentDetails"}).
		PlaylistId(playlistID).
		MaxResults(50).
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	resp, err := call.Do()
	if err != nil {
		return nil, err
	}

	page := &PlaylistItemsPage{NextPageToken: resp.NextPageToken}
	for _, item := range resp.Items {
		if item.ContentDetails == nil || item.ContentDetails.VideoId == "" {
			continue
		}
		page.VideoIDs = append(page.VideoIDs, item.ContentDetails.VideoId)
	}
	return page, nil
}

// VideoDetails fetches detail for one batch of up to VideoBatchSize ids.
// Videos the API withholds (private, deleted, members-only) are simply
// absent from the result; callers detect them by comparing against the
// requested ids.
func (c *Client) VideoDetails(ctx context.Context, videoIDs []string) ([]models.RawVideo, error) {
	if len(videoIDs) == 0 {
		return nil, nil
	}
	if len(videoIDs) > VideoBatchSize {
		return nil, fmt.Errorf("video detail batch too large: %d ids (max %d)", len(videoIDs), VideoBatchSize)
	}

	resp, err := c.service.Videos.List([]string{"snippet", "contentDetails", "status", "statistics"}).
		Id(strings.Join(videoIDs, ",")).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}

	videos := make([]models.RawVideo, 0, len(resp.Items))
	for _, item := range resp.Items {
		v := models.RawVideo{ID: item.Id}
		if item.Snippet != nil {
			v.Title = item.Snippet.Title
			v.Description = item.Snippet.Description
			v.PublishedAt = item.Snippet.PublishedAt
		}
		if item.ContentDetails != nil {
			v.Duration = item.ContentDetails.Duration
		}
		if item.Status != nil {
			v.Privacy = item.Status.PrivacyStatus
			v.License = item.Status.License
		}
		if item.Statistics != nil {
			v.ViewCount = int64(item.Statistics.ViewCount)
		}
		videos = append(videos, v)
	}
	return videos, nil
}

// ChannelDetail resolves author metadata for a channel.
func (c *Client) ChannelDetail(ctx context.Context, channelID string) (*models.RawChannel, error) {
	resp, err := c.service.Channels.List([]string{"snippet", "statistics"}).
		Id(channelID).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	if len(resp.Items) == 0 {
		log.Printf("No channel found for id %s", channelID)
		return nil, nil
	}

	item := resp.Items[0]
	ch := &models.RawChannel{ID: item.Id}
	if item.Snippet != nil {
		ch.Title = item.Snippet.Title
	}
	if item.Statistics != nil {
		ch.Subscribers = int64(item.Statistics.SubscriberCount)
	}
	return ch, nil
}

// IsAuthError reports whether err means the credential itself is bad, so no
// subsequent call can succeed.
func IsAuthError(err error) bool {
	var gerr *googleapi.Error
	if !asGoogleAPIError(err, &gerr) {
		return false
	}
	if gerr.Code == 401 {
		return true
	}
	for _, item := range gerr.Errors {
		switch item.Reason {
		case "keyInvalid", "keyExpired", "authError", "accessNotConfigured", "forbidden":
			return true
		}
	}
	return gerr.Code == 400 && strings.Contains(strings.ToLower(gerr.Message), "api key")
}

// IsQuotaError reports whether err is the platform's own quota refusal.
func IsQuotaError(err error) bool {
	var gerr *googleapi.Error
	if !asGoogleAPIError(err, &gerr) {
		return false
	}
	for _, item := range gerr.Errors {
		switch item.Reason {
		case "quotaExceeded", "dailyLimitExceeded", "rateLimitExceeded", "userRateLimitExceeded":
			return true
		}
	}
	return false
}

// IsTransient reports whether err is worth retrying: 5xx responses and
// network-level failures.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if IsAuthError(err) || IsQuotaError(err) {
		return false
	}
	var gerr *googleapi.Error
	if asGoogleAPIError(err, &gerr) {
		return gerr.Code >= 500 || gerr.Code == 408 || gerr.Code == 429
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	// Anything non-HTTP at this point is a transport failure.
	return true
}
