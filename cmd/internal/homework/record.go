package homework

import (
	"slices"
	"strings"
)

// Columns is the fixed CSV column order.
var Columns = []string{"id", "status", "teaNameSurname", "lesson", "startDate", "endDate", "description"}

// Record is one tracked homework row. Status is filled in by hand; the
// other fields come from the portal.
type Record struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Teacher     string `json:"teaNameSurname"`
	Lesson      string `json:"lesson"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Description string `json:"description"`
}

// NewRecord builds a record with an empty status from a listed item and its description.
func NewRecord(it Item, description string) Record {
	return Record{
		ID:          it.ID,
		Teacher:     it.Teacher,
		Lesson:      it.Lesson,
		StartDate:   it.StartDate,
		EndDate:     it.EndDate,
		Description: description,
	}
}

// Done reports whether the status marks the homework completed.
func (r Record) Done() bool {
	return strings.EqualFold(strings.TrimSpace(r.Status), "done")
}

// Row returns the record fields in Columns order.
func (r Record) Row() []string {
	return []string{r.ID, r.Status, r.Teacher, r.Lesson, r.StartDate, r.EndDate, r.Description}
}

// SortByDueDesc orders records by end date, latest first.
// Dates are compared as strings; the portal emits sortable timestamps.
func SortByDueDesc(recs []Record) {
	slices.SortStableFunc(recs, func(a, b Record) int {
		return strings.Compare(b.EndDate, a.EndDate)
	})
}

// IDs returns the set of non-empty record ids.
func IDs(recs []Record) map[string]struct{} {
	out := make(map[string]struct{}, len(recs))
	for _, r := range recs {
		if r.ID != "" {
			out[r.ID] = struct{}{}
		}
	}
	return out
}

// Merge appends incoming records whose id is new and returns the result
// together with the number of records added. existing is not modified.
func Merge(existing, incoming []Record) ([]Record, int) {
	seen := IDs(existing)
	out := make([]Record, 0, len(existing)+len(incoming))
	out = append(out, existing...)

	added := 0
	for _, r := range incoming {
		if r.ID == "" {
			continue
		}
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
		added++
	}
	return out, added
}
