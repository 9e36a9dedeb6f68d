package homework

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrInvalidPayload is returned when a payload is not JSON at all.
var ErrInvalidPayload = errors.New("homework: invalid payload")

// Shape is the resolved form of a homework list payload.
type Shape uint8

const (
	// ShapeError is an object carrying none of the known list keys.
	ShapeError Shape = iota
	// ShapeData is {"data": [...]}.
	ShapeData
	// ShapeBare is a top-level array.
	ShapeBare
	// ShapeHomework is {"homework": [...]}.
	ShapeHomework
	// ShapeHomeworks is {"homeworks": [...]}.
	ShapeHomeworks
)

func (s Shape) String() string {
	switch s {
	case ShapeData:
		return "data"
	case ShapeBare:
		return "bare"
	case ShapeHomework:
		return "homework"
	case ShapeHomeworks:
		return "homeworks"
	default:
		return "error"
	}
}

// Item is one homework entry as listed by the portal.
type Item struct {
	ID        string
	Teacher   string
	Lesson    string
	StartDate string
	EndDate   string
}

// List is a resolved homework list payload.
type List struct {
	Shape Shape
	Items []Item
	// Message carries the upstream error text for ShapeError.
	Message string
}

// OK reports whether the payload held a list.
func (l List) OK() bool { return l.Shape != ShapeError }

// ParseList resolves raw into a List.
func ParseList(raw []byte) (List, error) {
	if !gjson.ValidBytes(raw) {
		return List{}, ErrInvalidPayload
	}
	res := gjson.ParseBytes(raw)

	if res.IsArray() {
		return List{Shape: ShapeBare, Items: parseItems(res)}, nil
	}
	if !res.IsObject() {
		return List{Shape: ShapeError, Message: res.String()}, nil
	}

	for _, k := range []struct {
		key   string
		shape Shape
	}{
		{"data", ShapeData},
		{"homework", ShapeHomework},
		{"homeworks", ShapeHomeworks},
	} {
		v := res.Get(k.key)
		if !v.Exists() {
			continue
		}
		if k.shape == ShapeData && !v.IsArray() {
			// {"data": null} and friends mean "nothing listed".
			return List{Shape: ShapeData}, nil
		}
		return List{Shape: k.shape, Items: parseItems(v)}, nil
	}

	msg := res.Get("error").String()
	if msg == "" {
		msg = res.Get("message").String()
	}
	return List{Shape: ShapeError, Message: msg}, nil
}

func parseItems(arr gjson.Result) []Item {
	var items []Item
	arr.ForEach(func(_, v gjson.Result) bool {
		if !v.IsObject() {
			return true
		}
		items = append(items, Item{
			ID:        idString(v.Get("id")),
			Teacher:   v.Get("teaNameSurname").String(),
			Lesson:    v.Get("lesson").String(),
			StartDate: v.Get("startDate").String(),
			EndDate:   v.Get("endDate").String(),
		})
		return true
	})
	return items
}

// idString renders numeric and string ids the same way. Null and missing ids become "".
func idString(v gjson.Result) string {
	switch v.Type {
	case gjson.Number:
		return v.Raw
	case gjson.String:
		return strings.TrimSpace(v.Str)
	default:
		return ""
	}
}

// Detail is the part of a homework detail payload kept in records.
type Detail struct {
	Description string
}

// ParseDetail extracts the description from a detail payload.
// Anything unexpected yields an empty Detail.
func ParseDetail(raw []byte) Detail {
	if !gjson.ValidBytes(raw) {
		return Detail{}
	}
	res := gjson.ParseBytes(raw)
	if !res.IsObject() {
		return Detail{}
	}
	if data := res.Get("data"); data.IsObject() {
		return Detail{Description: data.Get("description").String()}
	}
	return Detail{Description: res.Get("description").String()}
}
