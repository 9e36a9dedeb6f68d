package executor

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"homeworksync/cmd/internal/homework"
)

func TestClient_HomeworkListAndDetail(t *testing.T) {
	t.Parallel()

	p, srv := newScripted(t,
		scripted{status: http.StatusOK, body: `{"homeworks":[{"id":5,"lesson":"Art"}]}`},
		scripted{status: http.StatusOK, body: `{"data":{"description":"draw"}}`},
	)
	c := NewClient(newTestExecutor(srv, &fakeSessions{id: "tok"}))

	l, err := c.HomeworkList(context.Background())
	if err != nil {
		t.Fatalf("HomeworkList: %v", err)
	}
	if l.Shape != homework.ShapeHomeworks || len(l.Items) != 1 || l.Items[0].ID != "5" {
		t.Fatalf("unexpected list %+v", l)
	}

	d, err := c.HomeworkDetail(context.Background(), "5")
	if err != nil {
		t.Fatalf("HomeworkDetail: %v", err)
	}
	if d.Description != "draw" {
		t.Fatalf("unexpected detail %+v", d)
	}

	if p.callCount() != 2 {
		t.Fatalf("expected 2 calls, got %d", p.callCount())
	}
}

func TestClient_SurfacesFailure(t *testing.T) {
	t.Parallel()

	_, srv := newScripted(t, scripted{status: http.StatusUnauthorized, body: `{}`})
	c := NewClient(newTestExecutor(srv, &fakeSessions{id: "tok"}))

	_, err := c.HomeworkList(context.Background())
	if KindOf(err) != KindExhaustedRetries {
		t.Fatalf("expected exhausted retries, got %v", err)
	}
	if !strings.Contains(err.Error(), "homework_list") {
		t.Fatalf("failure should name the request: %v", err)
	}
	if _, err := c.HomeworkDetail(context.Background(), ""); err == nil {
		t.Fatalf("empty id must fail")
	}
}

var _ homework.Source = (*Client)(nil)
