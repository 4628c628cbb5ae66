package store

import "testing"

func TestWriterPersist(t *testing.T) {
	l, err := NewLog(t.TempDir())
	if err != nil {
		t.Fatalf("NewLog() returned error: %v", err)
	}
	defer l.Close()
	m := testMirror(t)
	w := NewWriter(l, m)

	if err := w.Persist(testCourse("PL1", "Python Course")); err != nil {
		t.Fatalf("Persist() returned error: %v", err)
	}

	result, err := l.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll() returned error: %v", err)
	}
	if len(result.Courses) != 1 {
		t.Errorf("log has %d records, want 1", len(result.Courses))
	}
	got, err := m.GetByYoutubeID("PL1")
	if err != nil {
		t.Fatalf("GetByYoutubeID() returned error: %v", err)
	}
	if got == nil {
		t.Error("mirror missing persisted course")
	}
}

func TestWriterRefusesUnverified(t *testing.T) {
	l, err := NewLog(t.TempDir())
	if err != nil {
		t.Fatalf("NewLog() returned error: %v", err)
	}
	defer l.Close()
	w := NewWriter(l, testMirror(t))

	course := testCourse("PL1", "Sketchy Course")
	course.VerifiedFree = false
	if err := w.Persist(course); err == nil {
		t.Fatal("Persist() of unverified course succeeded, want error")
	}

	result, err := l.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll() returned error: %v", err)
	}
	if len(result.Courses) != 0 {
		t.Errorf("log has %d records after refused persist, want 0", len(result.Courses))
	}
}
