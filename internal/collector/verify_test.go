package collector

import (
	"testing"

	"coursespider/internal/models"
)

func publicVideo(id string) models.RawVideo {
	return models.RawVideo{ID: id, Privacy: "public", Duration: "PT10M"}
}

func TestVerifyAllPublic(t *testing.T) {
	v := NewVerifier(false)

	videos := []models.RawVideo{publicVideo("a"), publicVideo("b"), publicVideo("c")}
	free, failing := v.Verify(videos)

	if len(free) != 3 || len(failing) != 0 {
		t.Fatalf("Verify() = %d free, %d failing, want 3 free, 0 failing", len(free), len(failing))
	}
	if !v.Admissible(free, failing) {
		t.Error("Admissible() = false for a fully public course, want true")
	}
}

func TestVerifyRejectsWholeCourse(t *testing.T) {
	tests := []struct {
		name string
		bad  models.RawVideo
	}{
		{"private video", models.RawVideo{ID: "bad", Privacy: "private", Duration: "PT10M"}},
		{"members only", models.RawVideo{ID: "bad", Privacy: "public", MembersOnly: true, Duration: "PT10M"}},
		{"paid asset", models.RawVideo{ID: "bad", Privacy: "public", Paid: true, Duration: "PT10M"}},
		{"unavailable placeholder", models.RawVideo{ID: "bad", Privacy: "unavailable", MembersOnly: true}},
	}

	v := NewVerifier(false)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			videos := []models.RawVideo{publicVideo("a"), tt.bad, publicVideo("c")}
			free, failing := v.Verify(videos)

			if len(failing) != 1 || failing[0] != "bad" {
				t.Fatalf("failing = %v, want [bad]", failing)
			}
			if v.Admissible(free, failing) {
				t.Error("Admissible() = true with a failing lesson, want false")
			}
		})
	}
}

func TestVerifyPruneMode(t *testing.T) {
	v := NewVerifier(true)

	videos := []models.RawVideo{
		publicVideo("a"),
		{ID: "members", Privacy: "public", MembersOnly: true, Duration: "PT10M"},
		publicVideo("b"),
	}
	free, failing := v.Verify(videos)

	if len(free) != 2 {
		t.Fatalf("free = %d videos, want 2", len(free))
	}
	if !v.Admissible(free, failing) {
		t.Error("Admissible() = false in prune mode with free lessons left, want true")
	}

	// Pruning everything still blocks the course.
	allBad := []models.RawVideo{{ID: "x", Privacy: "private"}}
	free, failing = v.Verify(allBad)
	if v.Admissible(free, failing) {
		t.Error("Admissible() = true with nothing left after pruning, want false")
	}
}
