package models

import "fmt"

// RunState is the terminal state of a collection run.
type RunState string

const (
	RunDone           RunState = "DONE"
	RunQuotaExhausted RunState = "QUOTA_EXHAUSTED"
	RunCancelled      RunState = "CANCELLED"
	RunFailed         RunState = "FAILED"
)

// Rejection records why a candidate playlist was not persisted.
type Rejection struct {
	YoutubeID string   `json:"youtube_id"`
	Title     string   `json:"title"`
	Reason    string   `json:"reason"`
	VideoIDs  []string `json:"video_ids,omitempty"`
}

// RunReport summarizes one end-to-end collection run.
type RunReport struct {
	Discovered int         `json:"discovered"`
	Accepted   int         `json:"accepted"`
	Updated    int         `json:"updated"`
	Unchanged  int         `json:"unchanged"`
	Rejected   int         `json:"rejected"`
	QuotaUsed  int         `json:"quota_used"`
	State      RunState    `json:"state"`
	Rejections []Rejection `json:"rejections,omitempty"`
}

// GetSummary implements the scheduler Metrics interface.
func (r *RunReport) GetSummary() string {
	return fmt.Sprintf("discovered %d playlists, accepted %d, updated %d, rejected %d, quota used %d, state %s",
		r.Discovered, r.Accepted, r.Updated, r.Rejected, r.QuotaUsed, r.State)
}
