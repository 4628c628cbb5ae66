package collector

import (
	"context"
	"fmt"
	"log"

	"coursespider/internal/collector/youtube"
	"coursespider/internal/models"
	"coursespider/shared/config"
)

// Platform abstracts the video platform. The production implementation is
// youtube.Client; tests substitute fakes.
type Platform interface {
	SearchPlaylists(ctx context.Context, keyword, categoryHint, pageToken string, maxResults int64) (*youtube.SearchPage, error)
	PlaylistItems(ctx context.Context, playlistID, pageToken string) (*youtube.PlaylistItemsPage, error)
	VideoDetails(ctx context.Context, videoIDs []string) ([]models.RawVideo, error)
	ChannelDetail(ctx context.Context, channelID string) (*models.RawChannel, error)
}

// Discoverer issues quota-costed platform calls on behalf of a run. Every
// call is gated on the tracker before it is made and charged after it
// succeeds, so the budget is never overspent and failed calls cost nothing.
type Discoverer struct {
	platform Platform
	quota    *QuotaTracker
	costs    *config.YouTubeConfig
}

func NewDiscoverer(platform Platform, quota *QuotaTracker, costs *config.YouTubeConfig) *Discoverer {
	return &Discoverer{platform: platform, quota: quota, costs: costs}
}

// Discover pages through playlist search results for a keyword until
// maxPlaylists candidates are collected, the platform reports no further
// pages, or the quota tracker refuses the next search. Quota refusal is
// reported through the second return value rather than an error so the run
// can move on to persistence.
func (d *Discoverer) Discover(ctx context.Context, keyword, categoryHint string, maxPlaylists int) ([]models.RawPlaylist, bool, error) {
	var playlists []models.RawPlaylist
	pageToken := ""

	for len(playlists) < maxPlaylists {
		if !d.quota.CanSpend(d.costs.SearchCost) {
			log.Printf("Quota too low for another search (%d remaining, search costs %d), stopping discovery for %q",
				d.quota.Remaining(), d.costs.SearchCost, keyword)
			return playlists, true, nil
		}

		var page *youtube.SearchPage
		err := youtube.WithRetry(ctx, "playlist search", func() error {
			var callErr error
			page, callErr = d.platform.SearchPlaylists(ctx, keyword, categoryHint, pageToken, 25)
			return callErr
		})
		if err != nil {
			return playlists, false, classify(err, fmt.Sprintf("search %q", keyword))
		}
		d.spend(d.costs.SearchCost)

		for _, pl := range page.Playlists {
			playlists = append(playlists, pl)
			if len(playlists) == maxPlaylists {
				break
			}
		}

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	return playlists, false, nil
}

// FetchPlaylistVideoIDs pages through a playlist's items and returns its
// video ids in playlist order.
func (d *Discoverer) FetchPlaylistVideoIDs(ctx context.Context, playlistID string) ([]string, bool, error) {
	var ids []string
	pageToken := ""

	for {
		if !d.quota.CanSpend(d.costs.PlaylistItemsCost) {
			return ids, true, nil
		}

		var page *youtube.PlaylistItemsPage
		err := youtube.WithRetry(ctx, "playlist items", func() error {
			var callErr error
			page, callErr = d.platform.PlaylistItems(ctx, playlistID, pageToken)
			return callErr
		})
		if err != nil {
			return ids, false, classify(err, fmt.Sprintf("playlist items for %s", playlistID))
		}
		d.spend(d.costs.PlaylistItemsCost)

		ids = append(ids, page.VideoIDs...)
		if page.NextPageToken == "" {
			return ids, false, nil
		}
		pageToken = page.NextPageToken
	}
}

// FetchVideoDetails resolves per-video detail in batches, preserving the
// input order. Ids the platform withholds (private, deleted, members-only)
// come back as placeholder records so the verifier can attribute the
// rejection to them.
func (d *Discoverer) FetchVideoDetails(ctx context.Context, videoIDs []string) ([]models.RawVideo, bool, error) {
	found := make(map[string]models.RawVideo, len(videoIDs))

	for i := 0; i < len(videoIDs); i += youtube.VideoBatchSize {
		end := i + youtube.VideoBatchSize
		if end > len(videoIDs) {
			end = len(videoIDs)
		}
		batch := videoIDs[i:end]

		if !d.quota.CanSpend(d.costs.VideoBatchCost) {
			return nil, true, nil
		}

		var videos []models.RawVideo
		err := youtube.WithRetry(ctx, "video details", func() error {
			var callErr error
			videos, callErr = d.platform.VideoDetails(ctx, batch)
			return callErr
		})
		if err != nil {
			return nil, false, classify(err, "video details")
		}
		d.spend(d.costs.VideoBatchCost)

		for _, v := range videos {
			found[v.ID] = v
		}
	}

	ordered := make([]models.RawVideo, 0, len(videoIDs))
	for _, id := range videoIDs {
		if v, ok := found[id]; ok {
			ordered = append(ordered, v)
			continue
		}
		ordered = append(ordered, models.RawVideo{ID: id, Privacy: "unavailable", MembersOnly: true})
	}
	return ordered, false, nil
}

// FetchChannel resolves author metadata. A missing channel is not fatal; the
// normalizer falls back to the playlist's channel title.
func (d *Discoverer) FetchChannel(ctx context.Context, channelID string) (*models.RawChannel, bool, error) {
	if !d.quota.CanSpend(d.costs.ChannelCost) {
		return nil, true, nil
	}

	var ch *models.RawChannel
	err := youtube.WithRetry(ctx, "channel detail", func() error {
		var callErr error
		ch, callErr = d.platform.ChannelDetail(ctx, channelID)
		return callErr
	})
	if err != nil {
		return nil, false, classify(err, fmt.Sprintf("channel %s", channelID))
	}
	d.spend(d.costs.ChannelCost)
	return ch, false, nil
}

func (d *Discoverer) spend(cost int) {
	// CanSpend was checked just before the call; a failure here means the
	// day rolled over mid-call and the fresh budget covers it anyway.
	if err := d.quota.Spend(cost); err != nil {
		log.Printf("Warning: quota spend of %d refused after successful call: %v", cost, err)
	}
}

func classify(err error, op string) error {
	switch {
	case youtube.IsAuthError(err):
		return &AuthError{Err: fmt.Errorf("%s: %w", op, err)}
	case youtube.IsQuotaError(err):
		return fmt.Errorf("%s: %w", op, ErrQuotaExceeded)
	default:
		return &TransientError{Err: fmt.Errorf("%s: %w", op, err)}
	}
}
