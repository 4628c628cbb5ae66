package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"coursespider/internal/collector/youtube"
	"coursespider/internal/embed"
	"coursespider/internal/models"
	"coursespider/internal/store"
	"coursespider/shared/config"
	"coursespider/shared/email"
	"coursespider/shared/scheduler"
)

// CollectorAgent implements the scheduler.Agent interface. Each run walks
// the configured keywords through discovery, normalization, free-access
// verification, categorization and deduplication, and persists accepted
// courses.
type CollectorAgent struct {
	config      *config.Config
	platform    Platform
	courseLog   *store.Log
	mirror      *store.Mirror
	writer      *store.Writer
	embedder    *embed.Embedder
	emailSender *email.Sender

	// keywordCategory maps each configured search phrase back to the
	// category whose list it came from.
	keywordCategory map[string]string
}

func NewCollectorAgent(cfg *config.Config) *CollectorAgent {
	keywordCategory := make(map[string]string)
	for cat, keywords := range cfg.Collector.Keywords {
		for _, kw := range keywords {
			keywordCategory[kw] = cat
		}
	}
	return &CollectorAgent{
		config:          cfg,
		keywordCategory: keywordCategory,
	}
}

func (a *CollectorAgent) Name() string {
	return "Course Collector"
}

func (a *CollectorAgent) Initialize(ctx context.Context) error {
	log.Printf("Initializing %s...", a.Name())

	if a.platform == nil {
		client, err := youtube.NewClient(ctx, &a.config.YouTube)
		if err != nil {
			return fmt.Errorf("failed to create YouTube client: %w", err)
		}
		a.platform = client
		log.Println("YouTube client initialized")
	}

	if a.courseLog == nil {
		courseLog, err := store.NewLog(a.config.Store.DataDir)
		if err != nil {
			return fmt.Errorf("failed to open course log: %w", err)
		}
		a.courseLog = courseLog
	}

	if a.mirror == nil {
		mirror, err := store.OpenMirror(a.config.Store.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open mirror store: %w", err)
		}
		a.mirror = mirror
		log.Printf("Store initialized (%s)", a.config.Store.DBPath)
	}
	a.writer = store.NewWriter(a.courseLog, a.mirror)

	if a.config.Embeddings.Enabled && a.embedder == nil {
		embedder, err := embed.NewEmbedder(ctx, &a.config.Embeddings, a.mirror)
		if err != nil {
			return fmt.Errorf("failed to create embedder: %w", err)
		}
		a.embedder = embedder
		log.Println("Lesson embedder initialized")
	}

	if a.config.Email.Enabled && a.emailSender == nil {
		a.emailSender = email.NewSender(&a.config.Email)
	}

	return nil
}

func (a *CollectorAgent) RunOnce(ctx context.Context, events *scheduler.AgentEvents) error {
	startTime := time.Now()

	report, err := a.Collect(ctx, a.keywords())
	duration := time.Since(startTime)

	if err != nil {
		if events != nil && events.OnCriticalFailure != nil {
			events.OnCriticalFailure(err, duration)
		}
		return err
	}

	if a.emailSender != nil {
		if mailErr := a.emailSender.SendReport(report); mailErr != nil {
			log.Printf("Warning: failed to send report email: %v", mailErr)
		}
	}

	if events != nil && events.OnSuccess != nil {
		events.OnSuccess(report, duration)
	}
	log.Printf("Run complete: %s", report.GetSummary())
	return nil
}

// keywords flattens the configured per-category keyword lists, preserving
// the category priority order.
func (a *CollectorAgent) keywords() []string {
	var out []string
	for _, cat := range a.config.Collector.Categories {
		out = append(out, a.config.Collector.Keywords[cat]...)
	}
	return out
}

// run holds the per-run state: the quota budget, the dedup index and the
// report under construction. Nothing here outlives the run, so independent
// runs never share mutable state.
type run struct {
	quota      *QuotaTracker
	discoverer *Discoverer
	index      *DedupIndex
	normalizer *Normalizer
	verifier   *Verifier
	categories *Categorizer
	report     *models.RunReport
}

// Collect executes one end-to-end collection across the given keywords and
// returns the run report. Only an authorization failure or an unrecoverable
// store write returns a non-nil error; everything else is absorbed into the
// report.
func (a *CollectorAgent) Collect(ctx context.Context, keywords []string) (*models.RunReport, error) {
	report := &models.RunReport{State: models.RunDone}

	loaded, err := a.courseLog.LoadAll()
	if err != nil {
		report.State = models.RunFailed
		return report, fmt.Errorf("failed to load course log: %w", err)
	}

	quota := NewQuotaTracker(a.config.YouTube.DailyQuota)
	r := &run{
		quota:      quota,
		discoverer: NewDiscoverer(a.platform, quota, &a.config.YouTube),
		index:      BuildIndex(loaded.Courses),
		normalizer: NewNormalizer(a.config.Collector.MinLessons),
		verifier:   NewVerifier(a.config.Collector.PrunePaywalled),
		categories: NewCategorizer(a.config.Collector.Categories),
		report:     report,
	}
	log.Printf("Run starting: %d keywords, %d known courses, %d quota units",
		len(keywords), r.index.Len(), quota.Remaining())

	for _, keyword := range keywords {
		if ctx.Err() != nil {
			log.Printf("Run cancelled before keyword %q, stopping with partial progress", keyword)
			break
		}

		done, err := a.collectKeyword(ctx, r, keyword)
		if err != nil {
			report.State = models.RunFailed
			report.QuotaUsed = quota.RunUsage()
			return report, err
		}
		if done {
			report.State = models.RunQuotaExhausted
			break
		}
	}

	// A cancelled run may have stopped between stages with keywords left
	// unprocessed; it must not read as complete.
	if ctx.Err() != nil && report.State == models.RunDone {
		report.State = models.RunCancelled
	}

	report.QuotaUsed = quota.RunUsage()
	return report, nil
}

// collectKeyword runs the pipeline for one keyword. The bool result means
// the quota is exhausted and the run should stop; an error is fatal for the
// whole run. Per-keyword failures are logged, counted and swallowed.
func (a *CollectorAgent) collectKeyword(ctx context.Context, r *run, keyword string) (bool, error) {
	hint := a.keywordCategory[keyword]
	log.Printf("Searching %q (category hint %q)", keyword, hint)

	playlists, exhausted, err := r.discoverer.Discover(ctx, keyword, hint, a.config.Collector.MaxPlaylistsPerCategory)
	if err != nil {
		if fatal := a.keywordFailure(r, keyword, err); fatal != nil {
			return false, fatal
		}
		return errors.Is(err, ErrQuotaExceeded), nil
	}

	r.report.Discovered += len(playlists)
	if len(playlists) == 0 && !exhausted {
		log.Printf("No playlists found for %q", keyword)
	}

	for _, pl := range playlists {
		if ctx.Err() != nil {
			log.Println("Run cancelled between playlists, stopping with partial progress")
			return false, nil
		}
		plExhausted, err := a.processPlaylist(ctx, r, pl)
		if err != nil {
			if fatal := a.keywordFailure(r, keyword, err); fatal != nil {
				return false, fatal
			}
			if errors.Is(err, ErrQuotaExceeded) {
				return true, nil
			}
			continue
		}
		if plExhausted {
			return true, nil
		}
	}

	return exhausted, nil
}

// keywordFailure classifies a pipeline error. Auth and store errors come
// back as fatal; transient and validation failures are recorded against the
// report and absorbed.
func (a *CollectorAgent) keywordFailure(r *run, keyword string, err error) error {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		log.Printf("Authorization failure, aborting run: %v", err)
		return err
	}
	var storeErr *StoreWriteError
	if errors.As(err, &storeErr) {
		log.Printf("Unrecoverable store write, aborting run: %v", err)
		return err
	}
	if errors.Is(err, ErrQuotaExceeded) {
		log.Printf("Platform reported quota exhausted during %q", keyword)
		return nil
	}

	log.Printf("Keyword %q failed, moving on: %v", keyword, err)
	r.reject(models.Rejection{Title: keyword, Reason: err.Error()})
	return nil
}

// processPlaylist takes one candidate through fetch, dedup short-circuit,
// verification, normalization, categorization and persistence.
func (a *CollectorAgent) processPlaylist(ctx context.Context, r *run, pl models.RawPlaylist) (bool, error) {
	videoIDs, exhausted, err := r.discoverer.FetchPlaylistVideoIDs(ctx, pl.ID)
	if err != nil {
		return false, err
	}
	if exhausted {
		return true, nil
	}
	if len(videoIDs) == 0 {
		log.Printf("Playlist %s (%s) has no resolvable videos, skipping", pl.ID, pl.Title)
		r.reject(models.Rejection{YoutubeID: pl.ID, Title: pl.Title, Reason: "no resolvable videos"})
		return false, nil
	}

	// Cheap dedup probe before the costed detail calls: an unchanged,
	// already-verified course needs no further quota.
	if r.index.Resolve(pl.ID, pl.Title, len(videoIDs)) == ResolutionUnchanged &&
		r.index.KnownFree(pl.ID) && !a.config.Collector.ReverifyUnchanged {
		log.Printf("Playlist %s unchanged, skipping", pl.ID)
		r.report.Unchanged++
		return false, nil
	}

	videos, exhausted, err := r.discoverer.FetchVideoDetails(ctx, videoIDs)
	if err != nil {
		return false, err
	}
	if exhausted {
		return true, nil
	}

	if total := TotalDurationMin(videos); total < a.config.Collector.MinCourseDurationMin {
		r.reject(models.Rejection{
			YoutubeID: pl.ID, Title: pl.Title,
			Reason: fmt.Sprintf("total duration %d min below minimum %d", total, a.config.Collector.MinCourseDurationMin),
		})
		return false, nil
	}

	free, failing := r.verifier.Verify(videos)
	if !r.verifier.Admissible(free, failing) {
		r.reject(models.Rejection{
			YoutubeID: pl.ID, Title: pl.Title,
			Reason:   "contains non-free lessons",
			VideoIDs: failing,
		})
		return false, nil
	}
	if len(failing) > 0 {
		log.Printf("Pruned %d non-free lessons from playlist %s: %v", len(failing), pl.ID, failing)
		if total := TotalDurationMin(free); total < a.config.Collector.MinCourseDurationMin {
			r.reject(models.Rejection{
				YoutubeID: pl.ID, Title: pl.Title,
				Reason:   "below minimum duration after pruning non-free lessons",
				VideoIDs: failing,
			})
			return false, nil
		}
	}

	channel, exhausted, err := r.discoverer.FetchChannel(ctx, pl.ChannelID)
	if err != nil {
		var authErr *AuthError
		if errors.As(err, &authErr) {
			return false, err
		}
		// Author metadata is nice to have; fall back to playlist fields.
		log.Printf("Channel lookup failed for %s, using playlist metadata: %v", pl.ChannelID, err)
		channel = nil
	} else if exhausted {
		return true, nil
	}

	course, err := r.normalizer.Normalize(pl, free, channel)
	if err != nil {
		var valErr *ValidationError
		if errors.As(err, &valErr) {
			r.reject(models.Rejection{YoutubeID: valErr.YoutubeID, Title: pl.Title, Reason: valErr.Reason, VideoIDs: valErr.VideoIDs})
			return false, nil
		}
		return false, err
	}

	course.Category, course.Subcategory = r.categories.Categorize(course.Title, course.Description)

	resolution := r.index.Resolve(course.YoutubeID, course.Title, course.LessonCount)
	if resolution == ResolutionUnchanged {
		r.report.Unchanged++
		return false, nil
	}

	if err := a.writer.Persist(course); err != nil {
		return false, &StoreWriteError{Err: err}
	}
	r.index.Record(course)

	switch resolution {
	case ResolutionNew:
		r.report.Accepted++
	case ResolutionUpdated:
		r.report.Updated++
	}
	log.Printf("Persisted course %s (%s): %d lessons, %d min, category %s",
		course.YoutubeID, course.Title, course.LessonCount, course.DurationMin, course.Category)

	if a.embedder != nil {
		if err := a.embedder.EmbedCourse(ctx, course); err != nil {
			log.Printf("Warning: embedding failed for course %s: %v", course.YoutubeID, err)
		}
	}

	return false, nil
}

func (r *run) reject(rejection models.Rejection) {
	r.report.Rejected++
	r.report.Rejections = append(r.report.Rejections, rejection)
	log.Printf("Rejected %s (%s): %s", rejection.YoutubeID, rejection.Title, rejection.Reason)
}

// Close releases the stores.
func (a *CollectorAgent) Close() error {
	var firstErr error
	if a.courseLog != nil {
		if err := a.courseLog.Close(); err != nil {
			firstErr = err
		}
	}
	if a.mirror != nil {
		if err := a.mirror.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
