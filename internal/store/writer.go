package store

import (
	"fmt"

	"coursespider/internal/models"
)

// Writer persists accepted courses: every NEW or UPDATED course is appended
// to the JSONL log and upserted into the mirror. The append happens first so
// the source of truth is never behind the mirror.
type Writer struct {
	log    *Log
	mirror *Mirror
}

func NewWriter(log *Log, mirror *Mirror) *Writer {
	return &Writer{log: log, mirror: mirror}
}

// Persist writes one accepted course to both stores.
func (w *Writer) Persist(course *models.Course) error {
	if !course.VerifiedFree {
		return fmt.Errorf("refusing to persist unverified course %s", course.YoutubeID)
	}
	if err := w.log.Append(course); err != nil {
		return err
	}
	return w.mirror.Upsert(course)
}
