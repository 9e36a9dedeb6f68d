// Package report renders the homework progress page.
package report

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"homeworksync/cmd/internal/homework"
)

// DefaultHTMLPath is the object path of the rendered report.
const DefaultHTMLPath = "homework_report.html"

// DefaultTitle heads the page when Options.Title is empty.
const DefaultTitle = "Homework Progress Report"

//go:embed report.html.tmpl
var pageSource string

var page = template.Must(template.New("report").Funcs(template.FuncMap{
	"pct": func(v float64) string { return fmt.Sprintf("%.1f", v) },
}).Parse(pageSource))

// Options customizes the page header.
type Options struct {
	Title string
	Owner string
}

// Row is one rendered table row.
type Row struct {
	homework.Record
	StatusText string
	Done       bool
}

// Report is the view model for Render.
type Report struct {
	Title       string
	Owner       string
	GeneratedAt time.Time
	Total       int
	Completed   int
	Pending     int
	// Percentage is in [0, 100]; zero for an empty set.
	Percentage float64
	Rows       []Row
}

// Build computes the statistics over recs. Rows keep the order of recs.
func Build(recs []homework.Record, now time.Time, opts Options) Report {
	r := Report{
		Title:       strings.TrimSpace(opts.Title),
		Owner:       strings.TrimSpace(opts.Owner),
		GeneratedAt: now,
		Total:       len(recs),
		Rows:        make([]Row, 0, len(recs)),
	}
	if r.Title == "" {
		r.Title = DefaultTitle
	}

	for _, rec := range recs {
		row := Row{Record: rec, Done: rec.Done(), StatusText: strings.TrimSpace(rec.Status)}
		if row.StatusText == "" {
			row.StatusText = "Not Started"
		}
		if row.Done {
			r.Completed++
		}
		r.Rows = append(r.Rows, row)
	}
	r.Pending = r.Total - r.Completed
	if r.Total > 0 {
		r.Percentage = float64(r.Completed) / float64(r.Total) * 100
	}
	return r
}

// Render writes the HTML page for r.
func Render(w io.Writer, r Report) error {
	return page.Execute(w, r)
}

// HTML renders r into a byte slice.
func HTML(r Report) ([]byte, error) {
	var buf bytes.Buffer
	if err := Render(&buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
