// Package api exposes the homework collaborators as JSON HTTP endpoints.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"homeworksync/cmd/internal/blob"
	"homeworksync/cmd/internal/homework"
	"homeworksync/cmd/internal/portal/session"
	"homeworksync/cmd/internal/report"
	"homeworksync/cmd/security/token"
)

// Syncer runs one fetch-and-merge pass. *homework.Syncer implements it.
type Syncer interface {
	Run(ctx context.Context) (homework.Result, error)
}

// SessionView reports the cached portal session without acquiring one.
// *session.Store implements it.
type SessionView interface {
	Current() (session.Session, bool)
}

// Handler wires the homework endpoints to the syncer, record store and report storage.
type Handler struct {
	log *slog.Logger
	cfg Config
	now func() time.Time

	syncer   Syncer
	records  homework.RecordStore
	reports  blob.Store
	sessions SessionView
}

// HandlerOption configures optional handler dependencies.
type HandlerOption func(*Handler)

// WithReportStore sets where generated HTML reports are published.
func WithReportStore(blobs blob.Store) HandlerOption {
	return func(h *Handler) {
		if h == nil || blobs == nil {
			return
		}
		h.reports = blobs
	}
}

// WithSessionView enables GET /api/session.
func WithSessionView(v SessionView) HandlerOption {
	return func(h *Handler) {
		if h == nil || v == nil {
			return
		}
		h.sessions = v
	}
}

// WithClock overrides the clock used in commit messages and reports.
func WithClock(now func() time.Time) HandlerOption {
	return func(h *Handler) {
		if h == nil || now == nil {
			return
		}
		h.now = now
	}
}

// NewHandler constructs a Handler. syncer and records are required.
func NewHandler(log *slog.Logger, cfg Config, syncer Syncer, records homework.RecordStore, opts ...HandlerOption) (*Handler, error) {
	if syncer == nil || records == nil {
		return nil, errors.New("api: syncer and record store are required")
	}
	if log == nil {
		log = slog.Default()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultConfig().MaxBodyBytes
	}
	if cfg.HTMLPath == "" {
		cfg.HTMLPath = report.DefaultHTMLPath
	}

	h := &Handler{
		log:     log,
		cfg:     cfg,
		now:     time.Now,
		syncer:  syncer,
		records: records,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(h)
	}
	return h, nil
}

// Register wires the API routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("/api/fetch_homework", h.handleFetch)
	mux.HandleFunc("/api/get_csv", h.handleGetCSV)
	mux.HandleFunc("/api/update_csv", h.handleUpdateCSV)
	mux.HandleFunc("/api/generate_html", h.handleGenerateHTML)
	mux.HandleFunc("/api/session", h.handleSession)
}

// ---- handlers ----

func (h *Handler) handleFetch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	res, err := h.syncer.Run(r.Context())
	if err != nil {
		h.log.Error("api.fetch.fail", "run_id", res.RunID, "err", err)
		if errors.Is(err, homework.ErrNoData) {
			writeError(w, http.StatusInternalServerError, "Failed to fetch homework data")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, fetchResponse{
		Success:    true,
		Message:    fmt.Sprintf("Added %d new homework items", res.NewItems),
		NewItems:   res.NewItems,
		TotalItems: res.TotalItems,
		RunID:      res.RunID,
	})
}

func (h *Handler) handleGetCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	snap, err := h.records.Load(r.Context())
	if errors.Is(err, homework.ErrNotFound) {
		writeError(w, http.StatusNotFound, "CSV file not found")
		return
	}
	if err != nil {
		h.log.Error("api.get_csv.fail", "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	recs := snap.Records
	if recs == nil {
		recs = []homework.Record{}
	}
	homework.SortByDueDesc(recs)
	writeJSON(w, http.StatusOK, csvResponse{Success: true, Data: recs})
}

func (h *Handler) handleUpdateCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req updateRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Data) == 0 {
		writeError(w, http.StatusBadRequest, "No data provided")
		return
	}

	ctx := r.Context()
	snap, err := h.records.Load(ctx)
	if errors.Is(err, homework.ErrNotFound) {
		writeError(w, http.StatusNotFound, "CSV file not found")
		return
	}
	if err != nil {
		h.log.Error("api.update_csv.load.fail", "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	homework.SortByDueDesc(req.Data)
	msg := "Update homework status - " + h.now().Format(homework.CommitTimeLayout)
	if err := h.records.Save(ctx, homework.Snapshot{Records: req.Data, Version: snap.Version}, msg); err != nil {
		h.log.Error("api.update_csv.save.fail", "err", err)
		if errors.Is(err, homework.ErrStale) {
			writeError(w, http.StatusConflict, "CSV changed since it was loaded")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to update stored CSV")
		return
	}

	h.log.Info("api.update_csv.ok", "records", len(req.Data))
	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "CSV data updated successfully"})
}

func (h *Handler) handleGenerateHTML(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h.reports == nil {
		writeError(w, http.StatusServiceUnavailable, "report storage not configured")
		return
	}

	ctx := r.Context()
	snap, err := h.records.Load(ctx)
	if errors.Is(err, homework.ErrNotFound) {
		writeError(w, http.StatusNotFound, "CSV file not found")
		return
	}
	if err != nil {
		h.log.Error("api.generate_html.load.fail", "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(snap.Records) == 0 {
		writeError(w, http.StatusNotFound, "No homework data found")
		return
	}

	now := h.now()
	homework.SortByDueDesc(snap.Records)
	page, err := report.HTML(report.Build(snap.Records, now, report.Options{
		Title: h.cfg.ReportTitle,
		Owner: h.cfg.ReportOwner,
	}))
	if err != nil {
		h.log.Error("api.generate_html.render.fail", "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	msg := "Generate HTML report - " + now.Format(homework.CommitTimeLayout)
	url, err := report.Publish(ctx, h.reports, h.cfg.HTMLPath, page, msg)
	if err != nil {
		h.log.Error("api.generate_html.publish.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to update HTML file")
		return
	}

	h.log.Info("api.generate_html.ok", "records", len(snap.Records), "url", url)
	writeJSON(w, http.StatusOK, messageResponse{
		Success: true,
		Message: "HTML report generated successfully",
		URL:     url,
	})
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h.sessions == nil {
		writeJSON(w, http.StatusOK, sessionResponse{})
		return
	}

	sess, ok := h.sessions.Current()
	if !ok {
		writeJSON(w, http.StatusOK, sessionResponse{})
		return
	}
	exp := sess.ExpiresAt.UTC()
	writeJSON(w, http.StatusOK, sessionResponse{
		Present:     true,
		Origin:      string(sess.Origin),
		ExpiresAt:   &exp,
		Fingerprint: token.Fingerprint(sess.ID),
	})
}
