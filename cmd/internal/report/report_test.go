package report

import (
	"strings"
	"testing"
	"time"

	"homeworksync/cmd/internal/homework"
)

func TestBuild(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	recs := []homework.Record{
		{ID: "1", Status: "Done"},
		{ID: "2", Status: " done "},
		{ID: "3"},
	}

	r := Build(recs, now, Options{})
	if r.Title != DefaultTitle {
		t.Fatalf("expected default title, got %q", r.Title)
	}
	if r.Total != 3 || r.Completed != 2 || r.Pending != 1 {
		t.Fatalf("unexpected stats %+v", r)
	}
	if got := int(r.Percentage*10 + 0.5); got != 667 {
		t.Fatalf("unexpected percentage %v", r.Percentage)
	}
	if r.Rows[2].StatusText != "Not Started" || r.Rows[2].Done {
		t.Fatalf("unexpected empty status row %+v", r.Rows[2])
	}
	if r.Rows[0].ID != "1" {
		t.Fatalf("rows must keep input order")
	}
}

func TestBuild_Empty(t *testing.T) {
	t.Parallel()

	r := Build(nil, time.Now(), Options{Title: "  Term 2 "})
	if r.Percentage != 0 || r.Total != 0 || r.Pending != 0 {
		t.Fatalf("unexpected stats %+v", r)
	}
	if r.Title != "Term 2" {
		t.Fatalf("title not trimmed: %q", r.Title)
	}
}

func TestRender(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	recs := []homework.Record{
		{ID: "7", Status: "done", Teacher: "Ada", Lesson: "Math", EndDate: "2025-03-02"},
		{ID: "8", Lesson: "Art", Description: `<script>alert("x")</script>`},
	}

	out, err := HTML(Build(recs, now, Options{Owner: "Student"}))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	page := string(out)

	for _, want := range []string{
		"<title>Homework Progress Report - Student</title>",
		"50.0%",
		"Not Started",
		`class="status-done"`,
		"2025-03-01 09:30:00",
		"&lt;script&gt;",
	} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(page, "<script>") {
		t.Fatalf("description must be escaped")
	}
}
