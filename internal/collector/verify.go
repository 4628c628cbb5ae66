package collector

import "coursespider/internal/models"

// Verifier decides whether a candidate course is fully, freely watchable.
type Verifier struct {
	// prunePaywalled drops failing lessons instead of rejecting the whole
	// course.
	prunePaywalled bool
}

func NewVerifier(prunePaywalled bool) *Verifier {
	return &Verifier{prunePaywalled: prunePaywalled}
}

// Verify splits a playlist's videos into freely watchable ones and the ids
// that failed the check. In the default whole-course policy any failing id
// rejects the course; callers inspect the returned ids to attribute the
// rejection. With pruning enabled the free remainder is kept.
func (v *Verifier) Verify(videos []models.RawVideo) (free []models.RawVideo, failing []string) {
	for _, video := range videos {
		if isFreelyWatchable(video) {
			free = append(free, video)
		} else {
			failing = append(failing, video.ID)
		}
	}
	return free, failing
}

// Admissible reports whether a course with the given verification result may
// proceed. Under whole-course rejection any failing lesson blocks it; under
// pruning only a course with nothing left is blocked.
func (v *Verifier) Admissible(free []models.RawVideo, failing []string) bool {
	if len(failing) == 0 {
		return true
	}
	return v.prunePaywalled && len(free) > 0
}

func isFreelyWatchable(video models.RawVideo) bool {
	if video.Privacy != "public" {
		return false
	}
	return !video.MembersOnly && !video.Paid
}
