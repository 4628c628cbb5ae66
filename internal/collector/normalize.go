package collector

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"coursespider/internal/models"
)

var durationRe = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// ParseDurationMinutes converts an ISO 8601 duration (e.g. "PT1H12M30S")
// into whole minutes. A partial trailing minute rounds up, so a playable
// video never normalizes to zero.
func ParseDurationMinutes(duration string) int {
	matches := durationRe.FindStringSubmatch(duration)
	if matches == nil {
		return 0
	}

	atoi := func(s string) int {
		if s == "" {
			return 0
		}
		n, _ := strconv.Atoi(s)
		return n
	}

	minutes := atoi(matches[1])*60 + atoi(matches[2])
	if atoi(matches[3]) > 0 {
		minutes++
	}
	return minutes
}

// Normalizer converts raw platform responses into the canonical Course
// shape.
type Normalizer struct {
	minLessons int
	now        func() time.Time
}

func NewNormalizer(minLessons int) *Normalizer {
	return &Normalizer{minLessons: minLessons, now: time.Now}
}

// TotalDurationMin sums the normalized lesson durations for a candidate's
// videos. Used for the minimum-duration short circuit before verification.
func TotalDurationMin(videos []models.RawVideo) int {
	total := 0
	for _, v := range videos {
		total += ParseDurationMinutes(v.Duration)
	}
	return total
}

// Normalize builds a Course from a playlist and its verified videos. Videos
// arrive in playlist order and become lessons with contiguous 1-based idx.
// Callers run Normalize only on courses that passed free-access
// verification, so VerifiedFree is stamped true here.
func (n *Normalizer) Normalize(pl models.RawPlaylist, videos []models.RawVideo, ch *models.RawChannel) (*models.Course, error) {
	if len(videos) == 0 {
		return nil, &ValidationError{YoutubeID: pl.ID, Reason: "no resolvable videos"}
	}
	if len(videos) < n.minLessons {
		return nil, &ValidationError{YoutubeID: pl.ID, Reason: fmt.Sprintf("only %d lessons (minimum %d)", len(videos), n.minLessons)}
	}

	totalDuration := 0
	license := ""
	lessons := make([]models.Lesson, 0, len(videos))
	for i, v := range videos {
		minutes := ParseDurationMinutes(v.Duration)
		if minutes <= 0 {
			return nil, &ValidationError{YoutubeID: pl.ID, Reason: "video has no parseable duration", VideoIDs: []string{v.ID}}
		}
		totalDuration += minutes
		if license == "" {
			license = v.License
		}

		lessons = append(lessons, models.Lesson{
			Idx:         i + 1,
			Title:       v.Title,
			VideoID:     v.ID,
			DurationMin: minutes,
			Description: v.Description,
			Thumbnail:   fmt.Sprintf("https://i.ytimg.com/vi/%s/mqdefault.jpg", v.ID),
			PublishedAt: v.PublishedAt,
			ViewCount:   v.ViewCount,
		})
	}
	if license == "" {
		license = "youtube"
	}

	author := models.Author{
		Name:      pl.ChannelTitle,
		ChannelID: pl.ChannelID,
		Homepage:  fmt.Sprintf("https://www.youtube.com/channel/%s", pl.ChannelID),
	}
	if ch != nil {
		if ch.Title != "" {
			author.Name = ch.Title
		}
		author.Subscribers = ch.Subscribers
	}

	langCode := detectLanguage(pl.Title + " " + pl.Description)
	now := n.now().UTC()

	return &models.Course{
		YoutubeID:    pl.ID,
		URL:          fmt.Sprintf("https://www.youtube.com/playlist?list=%s", pl.ID),
		Title:        pl.Title,
		Author:       author,
		Description:  pl.Description,
		DurationMin:  totalDuration,
		LessonCount:  len(lessons),
		Lessons:      lessons,
		Language:     langCode,
		LanguageName: languageName(langCode),
		Thumbnail:    pl.Thumbnail,
		License:      license,
		Tags:         extractTags(pl.Title + " " + pl.Description),
		PublishedAt:  pl.PublishedAt,
		VerifiedFree: true,
		LastUpdated:  now,
		ScrapedAt:    now,
	}, nil
}

var languagePatterns = []struct {
	code    string
	pattern *regexp.Regexp
}{
	{"zh", regexp.MustCompile(`[\x{4e00}-\x{9fa5}]`)},
	{"ja", regexp.MustCompile(`[\x{3040}-\x{309F}\x{30A0}-\x{30FF}]`)},
	{"ko", regexp.MustCompile(`[\x{AC00}-\x{D7AF}]`)},
	{"hi", regexp.MustCompile(`[\x{0900}-\x{097F}]`)},
	{"ar", regexp.MustCompile(`[\x{0600}-\x{06FF}]`)},
	{"ru", regexp.MustCompile(`[\x{0400}-\x{04FF}]`)},
	{"es", regexp.MustCompile(`(?i)\b(español|curso|aprende|guía)\b`)},
	{"pt", regexp.MustCompile(`(?i)\b(português|aprenda)\b`)},
	{"fr", regexp.MustCompile(`(?i)\b(français|tutoriel|cours)\b`)},
	{"de", regexp.MustCompile(`(?i)\b(deutsch|kurs|lernen)\b`)},
	{"tr", regexp.MustCompile(`(?i)\b(türkçe|eğitim|öğren)\b`)},
	{"id", regexp.MustCompile(`(?i)\b(indonesia|kursus|belajar)\b`)},
	{"vi", regexp.MustCompile(`(?i)\b(tiếng việt|hướng dẫn|khóa học)\b`)},
	{"it", regexp.MustCompile(`(?i)\b(italiano|corso|imparare)\b`)},
}

func detectLanguage(text string) string {
	for _, lp := range languagePatterns {
		if lp.pattern.MatchString(text) {
			return lp.code
		}
	}
	return "en"
}

var languageNames = map[string]string{
	"en": "English", "es": "Spanish", "zh": "Chinese", "hi": "Hindi",
	"ar": "Arabic", "pt": "Portuguese", "fr": "French", "de": "German",
	"ja": "Japanese", "ko": "Korean", "ru": "Russian", "it": "Italian",
	"tr": "Turkish", "id": "Indonesian", "vi": "Vietnamese",
}

func languageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return "English"
}

var commonTags = []string{
	"beginner", "intermediate", "advanced", "tutorial", "course", "complete",
	"full", "crash course", "bootcamp", "masterclass", "certification",
	"project", "hands-on", "practical", "theory",
}

func extractTags(text string) []string {
	lower := strings.ToLower(text)
	var tags []string
	for _, tag := range commonTags {
		if strings.Contains(lower, tag) {
			tags = append(tags, tag)
		}
	}
	return tags
}
