package homework

import (
	"bytes"
	"strings"
	"testing"
)

func TestSortByDueDesc_Stable(t *testing.T) {
	t.Parallel()

	recs := []Record{
		{ID: "a", EndDate: "2026-01-01"},
		{ID: "b", EndDate: "2026-03-01"},
		{ID: "c", EndDate: "2026-01-01"},
		{ID: "d", EndDate: ""},
	}
	SortByDueDesc(recs)

	got := make([]string, 0, len(recs))
	for _, r := range recs {
		got = append(got, r.ID)
	}
	if strings.Join(got, ",") != "b,a,c,d" {
		t.Fatalf("unexpected order %v", got)
	}
}

func TestMerge_SkipsKnownAndEmptyIDs(t *testing.T) {
	t.Parallel()

	existing := []Record{{ID: "1", Status: "done"}}
	incoming := []Record{{ID: "1"}, {ID: ""}, {ID: "2"}, {ID: "2"}}

	out, added := Merge(existing, incoming)
	if added != 1 || len(out) != 2 {
		t.Fatalf("added=%d len=%d", added, len(out))
	}
	if out[0].Status != "done" {
		t.Fatalf("existing record must be kept as is")
	}
	if len(existing) != 1 {
		t.Fatalf("existing slice must not be modified")
	}
}

func TestRecord_Done(t *testing.T) {
	t.Parallel()

	for status, want := range map[string]bool{"done": true, " DONE ": true, "Done": true, "": false, "in progress": false} {
		if got := (Record{Status: status}).Done(); got != want {
			t.Fatalf("Done(%q)=%v want %v", status, got, want)
		}
	}
}

func TestCSV_RoundTripKeepsColumnOrder(t *testing.T) {
	t.Parallel()

	recs := []Record{{
		ID: "1", Status: "done", Teacher: "T", Lesson: "L",
		StartDate: "s", EndDate: "e", Description: "line one\nline, two",
	}}
	b, err := MarshalCSV(recs)
	if err != nil {
		t.Fatalf("MarshalCSV: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("id,status,teaNameSurname,lesson,startDate,endDate,description\n")) {
		t.Fatalf("unexpected header: %q", b)
	}

	back, err := DecodeCSV(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("DecodeCSV: %v", err)
	}
	if len(back) != 1 || back[0] != recs[0] {
		t.Fatalf("got %+v", back)
	}
}

func TestDecodeCSV_HeaderByName(t *testing.T) {
	t.Parallel()

	in := "\ufeffdescription,id,extra,endDate\nd1,42,x,2026-02-02\nshort\n"
	recs, err := DecodeCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("DecodeCSV: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].ID != "42" || recs[0].Description != "d1" || recs[0].EndDate != "2026-02-02" {
		t.Fatalf("unexpected first record %+v", recs[0])
	}
	if recs[1].Description != "short" || recs[1].ID != "" {
		t.Fatalf("short rows must not panic: %+v", recs[1])
	}

	empty, err := DecodeCSV(strings.NewReader(""))
	if err != nil || len(empty) != 0 {
		t.Fatalf("empty input: %v %v", empty, err)
	}
}
