package api

import (
	"time"

	"homeworksync/cmd/internal/homework"
)

type fetchResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	NewItems   int    `json:"new_items"`
	TotalItems int    `json:"total_items"`
	RunID      string `json:"run_id"`
}

type csvResponse struct {
	Success bool              `json:"success"`
	Data    []homework.Record `json:"data"`
}

type updateRequest struct {
	Data []homework.Record `json:"data"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	URL     string `json:"url,omitempty"`
}

type sessionResponse struct {
	Present     bool       `json:"present"`
	Origin      string     `json:"origin,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	Fingerprint string     `json:"fingerprint,omitempty"`
}
