package collector

import (
	"time"

	"coursespider/internal/models"
)

// Resolution classifies a candidate against the existing store.
type Resolution int

const (
	ResolutionNew Resolution = iota
	ResolutionUpdated
	ResolutionUnchanged
)

func (r Resolution) String() string {
	switch r {
	case ResolutionNew:
		return "NEW"
	case ResolutionUpdated:
		return "UPDATED"
	default:
		return "UNCHANGED"
	}
}

// IndexEntry is the change-detection fingerprint kept per known course.
// VerifiedFree is cached so unchanged courses can skip re-verification.
type IndexEntry struct {
	LessonCount  int
	Title        string
	LastUpdated  time.Time
	VerifiedFree bool
}

// DedupIndex maps youtube_id to its fingerprint. It is rebuilt from the
// authoritative store at the start of every run and owned exclusively by
// that run; it is never persisted as a separate cache.
type DedupIndex struct {
	entries map[string]IndexEntry
}

// BuildIndex derives the index from the courses currently in the store.
// Later records for the same id win, matching the store's read semantics.
func BuildIndex(courses []models.Course) *DedupIndex {
	idx := &DedupIndex{entries: make(map[string]IndexEntry, len(courses))}
	for _, c := range courses {
		idx.entries[c.YoutubeID] = IndexEntry{
			LessonCount:  c.LessonCount,
			Title:        c.Title,
			LastUpdated:  c.LastUpdated,
			VerifiedFree: c.VerifiedFree,
		}
	}
	return idx
}

// Resolve classifies a candidate: unknown id is NEW, a known id with a
// different lesson count or title is UPDATED, otherwise UNCHANGED.
func (d *DedupIndex) Resolve(youtubeID, title string, lessonCount int) Resolution {
	entry, ok := d.entries[youtubeID]
	if !ok {
		return ResolutionNew
	}
	if entry.LessonCount != lessonCount || entry.Title != title {
		return ResolutionUpdated
	}
	return ResolutionUnchanged
}

// KnownFree reports whether the id is already stored as verified free,
// letting unchanged courses skip quota-costed re-verification.
func (d *DedupIndex) KnownFree(youtubeID string) bool {
	entry, ok := d.entries[youtubeID]
	return ok && entry.VerifiedFree
}

// Record keeps the index current within a run so a playlist surfaced by two
// keywords is not written twice.
func (d *DedupIndex) Record(c *models.Course) {
	d.entries[c.YoutubeID] = IndexEntry{
		LessonCount:  c.LessonCount,
		Title:        c.Title,
		LastUpdated:  c.LastUpdated,
		VerifiedFree: c.VerifiedFree,
	}
}

// Len is the number of distinct known courses.
func (d *DedupIndex) Len() int {
	return len(d.entries)
}
