package models

// RawPlaylist is the platform's view of a candidate playlist before
// normalization. CategoryHint carries the category whose keyword list
// surfaced the playlist.
type RawPlaylist struct {
	ID           string
	Title        string
	Description  string
	ChannelID    string
	ChannelTitle string
	Thumbnail    string
	PublishedAt  string
	CategoryHint string
}

// RawVideo is the platform's per-video detail response. Privacy and the
// monetization flags feed the free-access check; Duration is the
// machine-readable ISO-8601 string.
type RawVideo struct {
	ID          string
	Title       string
	Description string
	Duration    string
	Privacy     string
	MembersOnly bool
	Paid        bool
	License     string
	PublishedAt string
	ViewCount   int64
}

// RawChannel is the channel-detail response used to resolve a course author.
type RawChannel struct {
	ID          string
	Title       string
	Subscribers int64
}
