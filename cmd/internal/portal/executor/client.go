package executor

import (
	"context"
	"fmt"
	"time"

	"homeworksync/cmd/internal/homework"
	"homeworksync/cmd/internal/portal"
)

// Client is the homework surface of the portal.
type Client struct {
	exec *Executor
	now  func() time.Time
}

// NewClient wraps exec.
func NewClient(exec *Executor) *Client {
	return &Client{exec: exec, now: time.Now}
}

// HomeworkList fetches and resolves the homework list.
func (c *Client) HomeworkList(ctx context.Context) (homework.List, error) {
	out, err := c.exec.Execute(ctx, Request{
		Name: "homework_list",
		URL:  portal.HomeworkListURL(c.exec.BaseURL(), c.now()),
	})
	if err != nil {
		return homework.List{}, err
	}
	l, err := homework.ParseList(out.Payload)
	if err != nil {
		return homework.List{}, &Failure{Request: "homework_list", Kind: KindInvalidPayload, Status: out.Status, Attempts: out.Attempts, Err: err}
	}
	return l, nil
}

// HomeworkDetail fetches the detail of one homework.
func (c *Client) HomeworkDetail(ctx context.Context, id string) (homework.Detail, error) {
	if id == "" {
		return homework.Detail{}, fmt.Errorf("homework detail: empty id")
	}
	out, err := c.exec.Execute(ctx, Request{
		Name: "homework_detail",
		URL:  portal.HomeworkDetailURL(c.exec.BaseURL(), id, c.now()),
	})
	if err != nil {
		return homework.Detail{}, err
	}
	return homework.ParseDetail(out.Payload), nil
}
