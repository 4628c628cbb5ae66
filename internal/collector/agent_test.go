package collector

import (
	"context"
	"path/filepath"
	"testing"

	"google.golang.org/api/googleapi"

	"coursespider/internal/collector/youtube"
	"coursespider/internal/models"
	"coursespider/internal/store"
	"coursespider/shared/config"
)

// fakePlatform serves canned search, playlist and video responses. Video ids
// absent from the videos map are withheld, the way the real platform withholds
// private and members-only videos.
type fakePlatform struct {
	playlists  map[string][]models.RawPlaylist
	items      map[string][]string
	videos     map[string]models.RawVideo
	channels   map[string]*models.RawChannel
	searchErr  error
	searchHook func()
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		playlists: make(map[string][]models.RawPlaylist),
		items:     make(map[string][]string),
		videos:    make(map[string]models.RawVideo),
		channels:  make(map[string]*models.RawChannel),
	}
}

// addCourse registers a playlist of 30-minute public videos for a keyword.
func (f *fakePlatform) addCourse(keyword, playlistID, title string, videoIDs ...string) {
	f.playlists[keyword] = append(f.playlists[keyword], models.RawPlaylist{
		ID: playlistID, Title: title, ChannelID: "UCfake", ChannelTitle: "Fake Channel",
	})
	f.items[playlistID] = videoIDs
	for _, id := range videoIDs {
		f.videos[id] = models.RawVideo{
			ID: id, Title: "Lesson " + id, Duration: "PT30M", Privacy: "public",
		}
	}
	f.channels["UCfake"] = &models.RawChannel{ID: "UCfake", Title: "Fake Channel", Subscribers: 5000}
}

func (f *fakePlatform) SearchPlaylists(ctx context.Context, keyword, categoryHint, pageToken string, maxResults int64) (*youtube.SearchPage, error) {
	if f.searchHook != nil {
		f.searchHook()
	}
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return &youtube.SearchPage{Playlists: f.playlists[keyword]}, nil
}

func (f *fakePlatform) PlaylistItems(ctx context.Context, playlistID, pageToken string) (*youtube.PlaylistItemsPage, error) {
	return &youtube.PlaylistItemsPage{VideoIDs: f.items[playlistID]}, nil
}

func (f *fakePlatform) VideoDetails(ctx context.Context, videoIDs []string) ([]models.RawVideo, error) {
	var out []models.RawVideo
	for _, id := range videoIDs {
		if v, ok := f.videos[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakePlatform) ChannelDetail(ctx context.Context, channelID string) (*models.RawChannel, error) {
	return f.channels[channelID], nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.YouTube.APIKey = "test-key"
	cfg.Store.DataDir = t.TempDir()
	cfg.Store.DBPath = filepath.Join(t.TempDir(), "courses.db")
	cfg.ApplyDefaults()
	cfg.Collector.Keywords = map[string][]string{"Programming": {"python course"}}
	return cfg
}

func newTestAgent(t *testing.T, cfg *config.Config, platform Platform) *CollectorAgent {
	t.Helper()
	a := NewCollectorAgent(cfg)
	a.platform = platform

	courseLog, err := store.NewLog(cfg.Store.DataDir)
	if err != nil {
		t.Fatalf("NewLog() returned error: %v", err)
	}
	mirror, err := store.OpenMirror(cfg.Store.DBPath)
	if err != nil {
		t.Fatalf("OpenMirror() returned error: %v", err)
	}
	a.courseLog = courseLog
	a.mirror = mirror
	a.writer = store.NewWriter(courseLog, mirror)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestCollectAcceptsCourse(t *testing.T) {
	cfg := testConfig(t)
	platform := newFakePlatform()
	platform.addCourse("python course", "PL1", "Python Programming Course", "v1", "v2", "v3", "v4", "v5", "v6")
	a := newTestAgent(t, cfg, platform)

	report, err := a.Collect(context.Background(), a.keywords())
	if err != nil {
		t.Fatalf("Collect() returned error: %v", err)
	}

	if report.State != models.RunDone {
		t.Errorf("State = %s, want DONE", report.State)
	}
	if report.Discovered != 1 || report.Accepted != 1 || report.Rejected != 0 {
		t.Errorf("report = %+v, want 1 discovered, 1 accepted, 0 rejected", report)
	}
	// search + playlist items + one video batch + channel detail.
	if want := 100 + 1 + 1 + 1; report.QuotaUsed != want {
		t.Errorf("QuotaUsed = %d, want %d", report.QuotaUsed, want)
	}

	got, err := a.mirror.GetByYoutubeID("PL1")
	if err != nil {
		t.Fatalf("GetByYoutubeID() returned error: %v", err)
	}
	if got == nil {
		t.Fatal("accepted course missing from mirror")
	}
	if got.Category != "Programming" {
		t.Errorf("Category = %s, want Programming", got.Category)
	}
	if got.LessonCount != 6 || got.Author.Name != "Fake Channel" {
		t.Errorf("LessonCount = %d, Author = %s", got.LessonCount, got.Author.Name)
	}
}

func TestCollectRejectsShortCourse(t *testing.T) {
	cfg := testConfig(t)
	platform := newFakePlatform()
	platform.addCourse("python course", "PL1", "Python Shorts", "v1", "v2", "v3", "v4", "v5")
	for id, v := range platform.videos {
		v.Duration = "PT5M" // 25 minutes total, below the 60 minute floor
		platform.videos[id] = v
	}
	a := newTestAgent(t, cfg, platform)

	report, err := a.Collect(context.Background(), a.keywords())
	if err != nil {
		t.Fatalf("Collect() returned error: %v", err)
	}

	if report.Accepted != 0 || report.Rejected != 1 {
		t.Fatalf("report = %+v, want 0 accepted, 1 rejected", report)
	}
	if len(report.Rejections) != 1 || report.Rejections[0].YoutubeID != "PL1" {
		t.Errorf("Rejections = %+v, want PL1 recorded", report.Rejections)
	}
}

func TestCollectRejectsMembersOnlyCourse(t *testing.T) {
	cfg := testConfig(t)
	platform := newFakePlatform()
	platform.addCourse("python course", "PL1", "Python Programming Course", "v1", "v2", "v3", "v4", "v5", "v6")
	// The platform withholds v3, the way it does for members-only videos.
	delete(platform.videos, "v3")
	a := newTestAgent(t, cfg, platform)

	report, err := a.Collect(context.Background(), a.keywords())
	if err != nil {
		t.Fatalf("Collect() returned error: %v", err)
	}

	if report.Accepted != 0 || report.Rejected != 1 {
		t.Fatalf("report = %+v, want the whole course rejected", report)
	}
	rej := report.Rejections[0]
	if len(rej.VideoIDs) != 1 || rej.VideoIDs[0] != "v3" {
		t.Errorf("VideoIDs = %v, want the rejection attributed to v3", rej.VideoIDs)
	}

	got, err := a.mirror.GetByYoutubeID("PL1")
	if err != nil {
		t.Fatalf("GetByYoutubeID() returned error: %v", err)
	}
	if got != nil {
		t.Error("rejected course was persisted")
	}
}

func TestCollectPrunesPaywalledLessons(t *testing.T) {
	cfg := testConfig(t)
	cfg.Collector.PrunePaywalled = true
	platform := newFakePlatform()
	platform.addCourse("python course", "PL1", "Python Programming Course", "v1", "v2", "v3", "v4", "v5", "v6")
	v := platform.videos["v3"]
	v.Privacy = "private"
	platform.videos["v3"] = v
	a := newTestAgent(t, cfg, platform)

	report, err := a.Collect(context.Background(), a.keywords())
	if err != nil {
		t.Fatalf("Collect() returned error: %v", err)
	}

	if report.Accepted != 1 || report.Rejected != 0 {
		t.Fatalf("report = %+v, want the pruned course accepted", report)
	}

	got, err := a.mirror.GetByYoutubeID("PL1")
	if err != nil {
		t.Fatalf("GetByYoutubeID() returned error: %v", err)
	}
	if got == nil {
		t.Fatal("pruned course missing from mirror")
	}
	if got.LessonCount != 5 || len(got.Lessons) != 5 {
		t.Fatalf("LessonCount = %d, len(Lessons) = %d, want 5 and 5", got.LessonCount, len(got.Lessons))
	}
	for i, lesson := range got.Lessons {
		if lesson.Idx != i+1 {
			t.Errorf("Lessons[%d].Idx = %d, want contiguous 1-based idx after pruning", i, lesson.Idx)
		}
		if lesson.VideoID == "v3" {
			t.Errorf("pruned video v3 survived as lesson %d", lesson.Idx)
		}
	}
	if got.DurationMin != 150 {
		t.Errorf("DurationMin = %d, want 150 (pruned lesson excluded)", got.DurationMin)
	}
}

func TestCollectPruneDurationRecheck(t *testing.T) {
	cfg := testConfig(t)
	cfg.Collector.PrunePaywalled = true
	platform := newFakePlatform()
	platform.addCourse("python course", "PL1", "Python Programming Course", "v1", "v2", "v3", "v4", "v5", "v6")
	// 66 minutes clears the 60 minute floor, but losing the private lesson
	// drops the remainder to 55.
	for id, v := range platform.videos {
		v.Duration = "PT11M"
		platform.videos[id] = v
	}
	v := platform.videos["v3"]
	v.Privacy = "private"
	platform.videos["v3"] = v
	a := newTestAgent(t, cfg, platform)

	report, err := a.Collect(context.Background(), a.keywords())
	if err != nil {
		t.Fatalf("Collect() returned error: %v", err)
	}

	if report.Accepted != 0 || report.Rejected != 1 {
		t.Fatalf("report = %+v, want the course rejected after pruning", report)
	}
	rej := report.Rejections[0]
	if rej.YoutubeID != "PL1" || len(rej.VideoIDs) != 1 || rej.VideoIDs[0] != "v3" {
		t.Errorf("Rejections[0] = %+v, want PL1 attributed to v3", rej)
	}
}

func TestCollectReverifyUnchanged(t *testing.T) {
	cfg := testConfig(t)
	platform := newFakePlatform()
	platform.addCourse("python course", "PL1", "Python Programming Course", "v1", "v2", "v3", "v4", "v5", "v6")
	a := newTestAgent(t, cfg, platform)

	if _, err := a.Collect(context.Background(), a.keywords()); err != nil {
		t.Fatalf("first Collect() returned error: %v", err)
	}

	// With re-verification on, the unchanged course goes back through the
	// costed detail and channel calls instead of the cached short circuit.
	cfg.Collector.ReverifyUnchanged = true
	second, err := a.Collect(context.Background(), a.keywords())
	if err != nil {
		t.Fatalf("second Collect() returned error: %v", err)
	}
	if second.Accepted != 0 || second.Updated != 0 || second.Unchanged != 1 {
		t.Errorf("second run = %+v, want 1 unchanged and nothing persisted", second)
	}
	if want := 100 + 1 + 1 + 1; second.QuotaUsed != want {
		t.Errorf("second run QuotaUsed = %d, want %d (detail calls repeated)", second.QuotaUsed, want)
	}
}

func TestCollectCancelledRun(t *testing.T) {
	cfg := testConfig(t)
	platform := newFakePlatform()
	platform.addCourse("python course", "PL1", "Python Programming Course", "v1", "v2", "v3", "v4", "v5", "v6")
	ctx, cancel := context.WithCancel(context.Background())
	platform.searchHook = cancel
	a := newTestAgent(t, cfg, platform)

	report, err := a.Collect(ctx, a.keywords())
	if err != nil {
		t.Fatalf("Collect() returned error: %v", err)
	}

	if report.State != models.RunCancelled {
		t.Errorf("State = %s, want CANCELLED for a partial run", report.State)
	}
	if report.Accepted != 0 {
		t.Errorf("Accepted = %d, want 0 (cancelled before processing)", report.Accepted)
	}
}

func TestCollectQuotaExhaustion(t *testing.T) {
	cfg := testConfig(t)
	// Enough for the search, the first playlist's three detail calls and part
	// of the second playlist's, but not all of it.
	cfg.YouTube.DailyQuota = 105
	platform := newFakePlatform()
	platform.addCourse("python course", "PL1", "Python Basics Course", "a1", "a2", "a3", "a4", "a5", "a6")
	platform.addCourse("python course", "PL2", "Python Advanced Course", "b1", "b2", "b3", "b4", "b5", "b6")
	a := newTestAgent(t, cfg, platform)

	report, err := a.Collect(context.Background(), a.keywords())
	if err != nil {
		t.Fatalf("Collect() returned error: %v", err)
	}

	if report.State != models.RunQuotaExhausted {
		t.Errorf("State = %s, want QUOTA_EXHAUSTED", report.State)
	}
	// Work done before exhaustion stays persisted.
	if report.Accepted != 1 {
		t.Errorf("Accepted = %d, want the first course persisted", report.Accepted)
	}
	got, err := a.mirror.GetByYoutubeID("PL1")
	if err != nil || got == nil {
		t.Errorf("GetByYoutubeID(PL1) = %v, %v, want the first course live", got, err)
	}
}

func TestCollectPlatformQuotaError(t *testing.T) {
	cfg := testConfig(t)
	platform := newFakePlatform()
	platform.searchErr = &googleapi.Error{
		Code:   403,
		Errors: []googleapi.ErrorItem{{Reason: "quotaExceeded"}},
	}
	a := newTestAgent(t, cfg, platform)

	report, err := a.Collect(context.Background(), a.keywords())
	if err != nil {
		t.Fatalf("Collect() returned error: %v, want quota exhaustion absorbed", err)
	}
	if report.State != models.RunQuotaExhausted {
		t.Errorf("State = %s, want QUOTA_EXHAUSTED", report.State)
	}
}

func TestCollectAuthFailureIsFatal(t *testing.T) {
	cfg := testConfig(t)
	platform := newFakePlatform()
	platform.searchErr = &googleapi.Error{Code: 401, Message: "invalid credentials"}
	a := newTestAgent(t, cfg, platform)

	report, err := a.Collect(context.Background(), a.keywords())
	if err == nil {
		t.Fatal("Collect() = nil error on authorization failure, want fatal error")
	}
	if report.State != models.RunFailed {
		t.Errorf("State = %s, want FAILED", report.State)
	}
}

func TestCollectDedupAcrossRuns(t *testing.T) {
	cfg := testConfig(t)
	platform := newFakePlatform()
	platform.addCourse("python course", "PL1", "Python Programming Course", "v1", "v2", "v3", "v4", "v5", "v6")
	a := newTestAgent(t, cfg, platform)

	first, err := a.Collect(context.Background(), a.keywords())
	if err != nil {
		t.Fatalf("first Collect() returned error: %v", err)
	}
	if first.Accepted != 1 {
		t.Fatalf("first run Accepted = %d, want 1", first.Accepted)
	}

	// Identical second run: no net-new records, and the unchanged course is
	// skipped before the costed detail calls.
	second, err := a.Collect(context.Background(), a.keywords())
	if err != nil {
		t.Fatalf("second Collect() returned error: %v", err)
	}
	if second.Accepted != 0 || second.Updated != 0 || second.Unchanged != 1 {
		t.Errorf("second run = %+v, want 1 unchanged and nothing persisted", second)
	}
	if want := 100 + 1; second.QuotaUsed != want {
		t.Errorf("second run QuotaUsed = %d, want %d (search + playlist items only)", second.QuotaUsed, want)
	}

	// A title change resolves to UPDATED and replaces the live record.
	platform.playlists["python course"][0].Title = "Python Programming Course 2025"
	third, err := a.Collect(context.Background(), a.keywords())
	if err != nil {
		t.Fatalf("third Collect() returned error: %v", err)
	}
	if third.Updated != 1 || third.Accepted != 0 {
		t.Errorf("third run = %+v, want 1 updated", third)
	}

	got, err := a.mirror.GetByYoutubeID("PL1")
	if err != nil {
		t.Fatalf("GetByYoutubeID() returned error: %v", err)
	}
	if got == nil || got.Title != "Python Programming Course 2025" {
		t.Errorf("mirror title = %v, want the updated title live", got)
	}
}

func TestKeywordsFollowCategoryOrder(t *testing.T) {
	cfg := testConfig(t)
	cfg.Collector.Keywords = map[string][]string{
		"Web Dev": {"react course"},
		"AI/ML":   {"machine learning course"},
	}
	a := NewCollectorAgent(cfg)

	got := a.keywords()
	want := []string{"machine learning course", "react course"}
	if len(got) != len(want) {
		t.Fatalf("keywords() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("keywords()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
