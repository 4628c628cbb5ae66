package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"coursespider/internal/models"

	_ "modernc.org/sqlite"
)

// Mirror is the queryable SQLite copy of the append-only log. The log
// remains the source of truth; the mirror is rebuilt record by record as
// courses are accepted and an update is a logical replace, so the latest
// record for a youtube_id is the only live one.
type Mirror struct {
	db *sql.DB
}

func OpenMirror(dbPath string) (*Mirror, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", dbPath, err)
	}
	// The collector is single-threaded; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	m := &Mirror{db: db}
	if err := m.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return m, nil
}

func (m *Mirror) createTables() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS courses (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			youtube_id TEXT UNIQUE NOT NULL,
			url TEXT NOT NULL,
			category TEXT NOT NULL,
			subcategory TEXT,
			title TEXT NOT NULL,
			description TEXT,
			author_name TEXT,
			author_channel_id TEXT,
			author_homepage TEXT,
			author_subscribers INTEGER DEFAULT 0,
			duration_min INTEGER DEFAULT 0,
			lesson_count INTEGER DEFAULT 0,
			language TEXT NOT NULL,
			language_name TEXT NOT NULL,
			thumbnail TEXT,
			license TEXT,
			tags TEXT,
			published_at TEXT,
			verified_free INTEGER DEFAULT 1,
			last_updated TEXT,
			scraped_at TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS lessons (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			course_id INTEGER NOT NULL,
			idx INTEGER NOT NULL,
			title TEXT NOT NULL,
			video_id TEXT NOT NULL,
			duration_min INTEGER DEFAULT 0,
			description TEXT,
			thumbnail TEXT,
			published_at TEXT,
			view_count INTEGER DEFAULT 0,
			FOREIGN KEY (course_id) REFERENCES courses (id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS embeddings (
			video_id TEXT PRIMARY KEY,
			model TEXT NOT NULL,
			vector BLOB NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_courses_category ON courses(category)`,
		`CREATE INDEX IF NOT EXISTS idx_courses_youtube_id ON courses(youtube_id)`,
		`CREATE INDEX IF NOT EXISTS idx_lessons_course_id ON lessons(course_id)`,
	}
	for _, stmt := range schema {
		if _, err := m.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}
	return nil
}

// Upsert inserts a course or logically replaces the stale record for the
// same youtube_id, lessons included.
func (m *Mirror) Upsert(course *models.Course) error {
	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var staleID int64
	err = tx.QueryRow(`SELECT id FROM courses WHERE youtube_id = ?`, course.YoutubeID).Scan(&staleID)
	switch {
	case err == nil:
		if _, err := tx.Exec(`DELETE FROM lessons WHERE course_id = ?`, staleID); err != nil {
			return fmt.Errorf("failed to drop stale lessons for %s: %w", course.YoutubeID, err)
		}
		if _, err := tx.Exec(`DELETE FROM courses WHERE id = ?`, staleID); err != nil {
			return fmt.Errorf("failed to drop stale course %s: %w", course.YoutubeID, err)
		}
	case err != sql.ErrNoRows:
		return fmt.Errorf("failed to look up course %s: %w", course.YoutubeID, err)
	}

	tags, err := json.Marshal(course.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags for %s: %w", course.YoutubeID, err)
	}

	res, err := tx.Exec(`
		INSERT INTO courses (
			youtube_id, url, category, subcategory, title, description,
			author_name, author_channel_id, author_homepage, author_subscribers,
			duration_min, lesson_count, language, language_name, thumbnail,
			license, tags, published_at, verified_free, last_updated, scraped_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		course.YoutubeID, course.URL, course.Category, course.Subcategory,
		course.Title, course.Description,
		course.Author.Name, course.Author.ChannelID, course.Author.Homepage, course.Author.Subscribers,
		course.DurationMin, course.LessonCount, course.Language, course.LanguageName,
		course.Thumbnail, course.License, string(tags), course.PublishedAt,
		boolToInt(course.VerifiedFree),
		course.LastUpdated.UTC().Format(time.RFC3339),
		course.ScrapedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert course %s: %w", course.YoutubeID, err)
	}
	courseID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get course row id: %w", err)
	}

	for _, lesson := range course.Lessons {
		if _, err := tx.Exec(`
			INSERT INTO lessons (course_id, idx, title, video_id, duration_min, description, thumbnail, published_at, view_count)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			courseID, lesson.Idx, lesson.Title, lesson.VideoID, lesson.DurationMin,
			lesson.Description, lesson.Thumbnail, lesson.PublishedAt, lesson.ViewCount,
		); err != nil {
			return fmt.Errorf("failed to insert lesson %s: %w", lesson.VideoID, err)
		}
	}

	return tx.Commit()
}

// SearchFilters narrows a mirror query. Zero values mean "no constraint".
type SearchFilters struct {
	Category    string
	Subcategory string
	Language    string
	Search      string
	MinLessons  int
	MinDuration int
	MaxDuration int
	Limit       int
	Offset      int
}

// Search returns courses matching the filters, newest first, lessons
// included. This is the read surface the query endpoint and viewer consume.
func (m *Mirror) Search(f SearchFilters) ([]models.Course, error) {
	query := strings.Builder{}
	query.WriteString(`SELECT id, youtube_id, url, category, subcategory, title, description,
		author_name, author_channel_id, author_homepage, author_subscribers,
		duration_min, lesson_count, language, language_name, thumbnail,
		license, tags, published_at, verified_free, last_updated, scraped_at
		FROM courses WHERE 1=1`)
	var args []any

	if f.Category != "" {
		query.WriteString(" AND category = ?")
		args = append(args, f.Category)
	}
	if f.Subcategory != "" {
		query.WriteString(" AND subcategory = ?")
		args = append(args, f.Subcategory)
	}
	if f.Language != "" {
		query.WriteString(" AND language = ?")
		args = append(args, f.Language)
	}
	if f.Search != "" {
		query.WriteString(" AND (title LIKE ? OR description LIKE ?)")
		needle := "%" + f.Search + "%"
		args = append(args, needle, needle)
	}
	if f.MinLessons > 0 {
		query.WriteString(" AND lesson_count >= ?")
		args = append(args, f.MinLessons)
	}
	if f.MinDuration > 0 {
		query.WriteString(" AND duration_min >= ?")
		args = append(args, f.MinDuration)
	}
	if f.MaxDuration > 0 {
		query.WriteString(" AND duration_min <= ?")
		args = append(args, f.MaxDuration)
	}

	query.WriteString(" ORDER BY created_at DESC")
	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query.WriteString(" LIMIT ? OFFSET ?")
	args = append(args, limit, f.Offset)

	rows, err := m.db.Query(query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search query failed: %w", err)
	}
	defer rows.Close()

	var courses []models.Course
	var rowIDs []int64
	for rows.Next() {
		course, rowID, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, *course)
		rowIDs = append(rowIDs, rowID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search scan failed: %w", err)
	}

	for i, rowID := range rowIDs {
		lessons, err := m.lessonsFor(rowID)
		if err != nil {
			return nil, err
		}
		courses[i].Lessons = lessons
	}
	return courses, nil
}

// GetByYoutubeID returns the live record for a course, or nil when absent.
func (m *Mirror) GetByYoutubeID(youtubeID string) (*models.Course, error) {
	row := m.db.QueryRow(`SELECT id, youtube_id, url, category, subcategory, title, description,
		author_name, author_channel_id, author_homepage, author_subscribers,
		duration_min, lesson_count, language, language_name, thumbnail,
		license, tags, published_at, verified_free, last_updated, scraped_at
		FROM courses WHERE youtube_id = ?`, youtubeID)

	course, rowID, err := scanCourse(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	lessons, err := m.lessonsFor(rowID)
	if err != nil {
		return nil, err
	}
	course.Lessons = lessons
	return course, nil
}

// CountByCategory reports how many live courses each category holds.
func (m *Mirror) CountByCategory() (map[string]int, error) {
	rows, err := m.db.Query(`SELECT category, COUNT(*) FROM courses GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("category count query failed: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var cat string
		var n int
		if err := rows.Scan(&cat, &n); err != nil {
			return nil, err
		}
		counts[cat] = n
	}
	return counts, rows.Err()
}

// SaveEmbedding stores one lesson's text embedding, keyed by video_id. The
// vector is little-endian float32s; a re-run replaces the previous vector.
func (m *Mirror) SaveEmbedding(videoID, model string, vector []byte) error {
	_, err := m.db.Exec(`
		INSERT INTO embeddings (video_id, model, vector) VALUES (?, ?, ?)
		ON CONFLICT(video_id) DO UPDATE SET model = excluded.model, vector = excluded.vector`,
		videoID, model, vector)
	if err != nil {
		return fmt.Errorf("failed to save embedding for %s: %w", videoID, err)
	}
	return nil
}

// HasEmbedding reports whether a lesson already has a stored vector.
func (m *Mirror) HasEmbedding(videoID string) (bool, error) {
	var one int
	err := m.db.QueryRow(`SELECT 1 FROM embeddings WHERE video_id = ?`, videoID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (m *Mirror) Close() error {
	return m.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCourse(row rowScanner) (*models.Course, int64, error) {
	var c models.Course
	var rowID int64
	var tags, lastUpdated, scrapedAt string
	var verifiedFree int

	err := row.Scan(&rowID, &c.YoutubeID, &c.URL, &c.Category, &c.Subcategory,
		&c.Title, &c.Description,
		&c.Author.Name, &c.Author.ChannelID, &c.Author.Homepage, &c.Author.Subscribers,
		&c.DurationMin, &c.LessonCount, &c.Language, &c.LanguageName, &c.Thumbnail,
		&c.License, &tags, &c.PublishedAt, &verifiedFree, &lastUpdated, &scrapedAt)
	if err != nil {
		return nil, 0, err
	}

	c.VerifiedFree = verifiedFree != 0
	if tags != "" {
		_ = json.Unmarshal([]byte(tags), &c.Tags)
	}
	if t, err := time.Parse(time.RFC3339, lastUpdated); err == nil {
		c.LastUpdated = t
	}
	if t, err := time.Parse(time.RFC3339, scrapedAt); err == nil {
		c.ScrapedAt = t
	}
	return &c, rowID, nil
}

func (m *Mirror) lessonsFor(courseRowID int64) ([]models.Lesson, error) {
	rows, err := m.db.Query(`SELECT idx, title, video_id, duration_min, description, thumbnail, published_at, view_count
		FROM lessons WHERE course_id = ? ORDER BY idx`, courseRowID)
	if err != nil {
		return nil, fmt.Errorf("lesson query failed: %w", err)
	}
	defer rows.Close()

	var lessons []models.Lesson
	for rows.Next() {
		var l models.Lesson
		if err := rows.Scan(&l.Idx, &l.Title, &l.VideoID, &l.DurationMin,
			&l.Description, &l.Thumbnail, &l.PublishedAt, &l.ViewCount); err != nil {
			return nil, err
		}
		lessons = append(lessons, l)
	}
	return lessons, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
