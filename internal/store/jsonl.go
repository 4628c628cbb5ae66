package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"coursespider/internal/models"
)

// maxRecordBytes bounds a single JSONL line; course descriptions and lesson
// lists can get large but never near this.
const maxRecordBytes = 16 * 1024 * 1024

// Log is the month-partitioned append-only course log. Each accepted course
// is one self-contained JSON object per line in courses_YYYY-MM.jsonl, keyed
// by the UTC month of collection. Records are flushed to disk one at a time,
// so a crash loses at most the in-flight record.
type Log struct {
	dataDir string
	now     func() time.Time

	file  *os.File
	month string
}

func NewLog(dataDir string) (*Log, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &Log{dataDir: dataDir, now: time.Now}, nil
}

// Append writes one course record and syncs it before returning.
func (l *Log) Append(course *models.Course) error {
	month := l.now().UTC().Format("2006-01")
	if l.file == nil || month != l.month {
		if err := l.rotate(month); err != nil {
			return err
		}
	}

	data, err := json.Marshal(course)
	if err != nil {
		return fmt.Errorf("failed to encode course %s: %w", course.YoutubeID, err)
	}
	data = append(data, '\n')

	if _, err := l.file.Write(data); err != nil {
		return fmt.Errorf("failed to append course %s: %w", course.YoutubeID, err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync course log: %w", err)
	}
	return nil
}

func (l *Log) rotate(month string) error {
	if l.file != nil {
		if err := l.file.Close(); err != nil {
			log.Printf("Warning: failed to close course log for %s: %v", l.month, err)
		}
	}

	path := filepath.Join(l.dataDir, fmt.Sprintf("courses_%s.jsonl", month))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open course log %s: %w", path, err)
	}
	l.file = f
	l.month = month
	return nil
}

func (l *Log) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// LoadResult is the outcome of reading the full log back.
type LoadResult struct {
	Courses []models.Course
	Skipped int
}

// LoadAll reads every month partition in chronological order. Lines that
// fail to parse are skipped and counted, never abort the load; later records
// for the same youtube_id supersede earlier ones at the consumer (the dedup
// index keeps the last occurrence).
func (l *Log) LoadAll() (*LoadResult, error) {
	pattern := filepath.Join(l.dataDir, "courses_*.jsonl")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list course logs: %w", err)
	}
	sort.Strings(files)

	result := &LoadResult{}
	for _, path := range files {
		if err := l.loadFile(path, result); err != nil {
			return nil, err
		}
	}
	if result.Skipped > 0 {
		log.Printf("Skipped %d corrupt records while loading course log", result.Skipped)
	}
	return result, nil
}

func (l *Log) loadFile(path string, result *LoadResult) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open course log %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxRecordBytes)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var course models.Course
		if err := json.Unmarshal(line, &course); err != nil || course.YoutubeID == "" {
			result.Skipped++
			continue
		}
		result.Courses = append(result.Courses, course)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read course log %s: %w", path, err)
	}
	return nil
}
