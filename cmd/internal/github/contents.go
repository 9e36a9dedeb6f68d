// Package github stores blobs as files in a GitHub repository through the
// REST contents API. Every write is a commit on the configured branch and
// the blob sha serves as the optimistic-concurrency version.
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v72/github"
	"github.com/klauspost/compress/gzhttp"

	"homeworksync/cmd/internal/blob"
)

// ContentsStore implements blob.Store on top of the contents API.
type ContentsStore struct {
	cfg    Config
	owner  string
	repo   string
	client *gh.Client
	log    *slog.Logger
}

var _ blob.Store = (*ContentsStore)(nil)

// NewContentsStore constructs a store. A nil client gets a default one bounded by cfg.Timeout.
func NewContentsStore(cfg Config, client *http.Client, log *slog.Logger) (*ContentsStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	if client == nil {
		client = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: gzhttp.Transport(http.DefaultTransport),
		}
	}

	base, err := url.Parse(cfg.APIURL + "/")
	if err != nil {
		return nil, fmt.Errorf("%w: GITHUB_API_URL: %v", ErrConfig, err)
	}
	api := gh.NewClient(client).WithAuthToken(cfg.Token)
	api.BaseURL = base
	api.UserAgent = "homeworksync"

	owner, repo, _ := strings.Cut(cfg.Repo, "/")
	return &ContentsStore{cfg: cfg, owner: owner, repo: repo, client: api, log: log}, nil
}

func (s *ContentsStore) Get(ctx context.Context, path string) (blob.Object, error) {
	p, err := blob.CleanPath(path)
	if err != nil {
		return blob.Object{}, err
	}

	file, dir, _, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, p,
		&gh.RepositoryContentGetOptions{Ref: s.cfg.Branch})
	if err != nil {
		if statusOf(err) == http.StatusNotFound {
			return blob.Object{}, blob.ErrNotFound
		}
		return blob.Object{}, fmt.Errorf("github: get %s: %w", p, err)
	}
	if file == nil {
		return blob.Object{}, fmt.Errorf("github: %s is a directory of %d entries, not a file", p, len(dir))
	}

	content, err := file.GetContent()
	if err != nil {
		return blob.Object{}, fmt.Errorf("github: decode content of %s: %w", p, err)
	}
	return blob.Object{Path: p, Content: []byte(content), Version: file.GetSHA()}, nil
}

// Put creates the file when version is empty and updates it otherwise.
// A stale or missing sha surfaces as blob.ErrConflict.
func (s *ContentsStore) Put(ctx context.Context, path string, content []byte, version, message string) (string, error) {
	p, err := blob.CleanPath(path)
	if err != nil {
		return "", err
	}

	opts := &gh.RepositoryContentFileOptions{
		Message: gh.Ptr(message),
		Content: content,
		Branch:  gh.Ptr(s.cfg.Branch),
	}

	var res *gh.RepositoryContentResponse
	if version == "" {
		res, _, err = s.client.Repositories.CreateFile(ctx, s.owner, s.repo, p, opts)
	} else {
		opts.SHA = gh.Ptr(version)
		res, _, err = s.client.Repositories.UpdateFile(ctx, s.owner, s.repo, p, opts)
	}
	if err != nil {
		switch statusOf(err) {
		case http.StatusConflict, http.StatusUnprocessableEntity:
			// 409 for a stale sha, 422 when a sha is missing for an existing file.
			return "", fmt.Errorf("%w: github: put %s: %w", blob.ErrConflict, p, err)
		default:
			return "", fmt.Errorf("github: put %s: %w", p, err)
		}
	}

	sha := ""
	if res != nil && res.Content != nil {
		sha = res.Content.GetSHA()
	}
	if sha == "" {
		return "", fmt.Errorf("github: put %s: response carries no sha", p)
	}
	s.log.Info("github.contents.put", "repo", s.cfg.Repo, "branch", s.cfg.Branch, "path", p, "sha", sha)
	return sha, nil
}

// URL returns the raw file URL on the configured branch.
func (s *ContentsStore) URL(path string) string {
	p, err := blob.CleanPath(path)
	if err != nil {
		return ""
	}
	return s.cfg.RawURL + "/" + s.cfg.Repo + "/" + s.cfg.Branch + "/" + escapePath(p)
}

func statusOf(err error) int {
	var er *gh.ErrorResponse
	if errors.As(err, &er) && er.Response != nil {
		return er.Response.StatusCode
	}
	return 0
}

func escapePath(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}
