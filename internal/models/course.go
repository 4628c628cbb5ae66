package models

import "time"

// Course is one collected playlist, normalized into the canonical record
// shape persisted to the store. YoutubeID is the playlist ID and is the
// unique identity of a course across all runs.
type Course struct {
	YoutubeID    string    `json:"youtube_id"`
	URL          string    `json:"url"`
	Category     string    `json:"category"`
	Subcategory  string    `json:"subcategory"`
	Title        string    `json:"title"`
	Author       Author    `json:"author"`
	Description  string    `json:"description"`
	DurationMin  int       `json:"duration_min"`
	LessonCount  int       `json:"lesson_count"`
	Lessons      []Lesson  `json:"lessons"`
	Language     string    `json:"language"`
	LanguageName string    `json:"language_name"`
	Thumbnail    string    `json:"thumbnail"`
	License      string    `json:"license"`
	Tags         []string  `json:"tags"`
	PublishedAt  string    `json:"published_at"`
	VerifiedFree bool      `json:"verified_free"`
	LastUpdated  time.Time `json:"last_updated"`
	ScrapedAt    time.Time `json:"scraped_at"`
}

// Lesson is one video within a course. Idx is 1-based and contiguous,
// matching the playlist order.
type Lesson struct {
	Idx         int    `json:"idx"`
	Title       string `json:"title"`
	VideoID     string `json:"video_id"`
	DurationMin int    `json:"duration_min"`
	Description string `json:"description"`
	Thumbnail   string `json:"thumbnail"`
	PublishedAt string `json:"published_at"`
	ViewCount   int64  `json:"view_count"`
}

// Author describes the channel behind a course.
type Author struct {
	Name        string `json:"name"`
	ChannelID   string `json:"channel_id"`
	Homepage    string `json:"homepage"`
	Subscribers int64  `json:"subscribers"`
}
