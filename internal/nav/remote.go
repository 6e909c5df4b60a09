// Package nav implements the acquire.Navigator contract against a browser
// driver sidecar. The sidecar owns the live session; this client speaks a
// small JSON protocol over HTTP and never touches the DOM itself.
package nav

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rotisserie/eris"

	"github.com/arc-research/harvest-cli/internal/acquire"
	"github.com/arc-research/harvest-cli/internal/model"
)

// Remote is an HTTP client for the driver sidecar.
type Remote struct {
	client *resty.Client
}

// NewRemote creates a driver client for the given base URL.
func NewRemote(baseURL string) *Remote {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(120 * time.Second).
		SetRetryCount(0)
	return &Remote{client: client}
}

type searchRequest struct {
	Key       string `json:"key"`
	Name      string `json:"name"`
	SearchAll bool   `json:"search_all"`
}

type searchResponse struct {
	SessionID string `json:"session_id"`
}

// Search submits a search for the entity and returns a handle to the
// resulting session. The sidecar reports archive-side failures (page did
// not load, table missing) as non-2xx responses.
func (r *Remote) Search(ctx context.Context, entity model.Entity, searchAll bool) (acquire.ResultsPage, error) {
	var out searchResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(searchRequest{Key: entity.Key, Name: entity.DisplayName, SearchAll: searchAll}).
		SetResult(&out).
		Post("/search")
	if err != nil {
		return nil, eris.Wrapf(err, "nav: search %s", entity.Key)
	}
	if resp.IsError() {
		return nil, eris.Errorf("nav: search %s: driver returned %s", entity.Key, resp.Status())
	}
	return &remotePage{client: r.client, sessionID: out.SessionID}, nil
}

// BackToSearch returns the driver to the blank search form.
func (r *Remote) BackToSearch(ctx context.Context) error {
	resp, err := r.client.R().SetContext(ctx).Post("/back")
	if err != nil {
		return eris.Wrap(err, "nav: back to search")
	}
	if resp.IsError() {
		return eris.Errorf("nav: back to search: driver returned %s", resp.Status())
	}
	return nil
}

type remotePage struct {
	client    *resty.Client
	sessionID string
}

type countResponse struct {
	Count int `json:"count"`
}

type rowsResponse struct {
	Rows []acquire.Row `json:"rows"`
}

func (p *remotePage) PageCount(ctx context.Context) (int, error) {
	var out countResponse
	if err := p.get(ctx, "pages", &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

func (p *remotePage) ReportCount(ctx context.Context) (int, error) {
	var out countResponse
	if err := p.get(ctx, "reports", &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

func (p *remotePage) Rows(ctx context.Context) ([]acquire.Row, error) {
	var out rowsResponse
	if err := p.get(ctx, "rows", &out); err != nil {
		return nil, err
	}
	return out.Rows, nil
}

func (p *remotePage) SelectRow(ctx context.Context, n int) error {
	return p.post(ctx, fmt.Sprintf("select/%d", n), nil)
}

func (p *remotePage) SelectAll(ctx context.Context) error {
	return p.post(ctx, "select-all", nil)
}

func (p *remotePage) BulkDownload(ctx context.Context) error {
	return p.post(ctx, "download", nil)
}

func (p *remotePage) GotoPage(ctx context.Context, n int) error {
	return p.post(ctx, fmt.Sprintf("page/%d", n), nil)
}

func (p *remotePage) get(ctx context.Context, op string, out any) error {
	resp, err := p.client.R().
		SetContext(ctx).
		SetResult(out).
		Get(fmt.Sprintf("/session/%s/%s", p.sessionID, op))
	if err != nil {
		return eris.Wrapf(err, "nav: %s", op)
	}
	if resp.IsError() {
		return eris.Errorf("nav: %s: driver returned %s", op, resp.Status())
	}
	return nil
}

func (p *remotePage) post(ctx context.Context, op string, body any) error {
	req := p.client.R().SetContext(ctx)
	if body != nil {
		req = req.SetBody(body)
	}
	resp, err := req.Post(fmt.Sprintf("/session/%s/%s", p.sessionID, op))
	if err != nil {
		return eris.Wrapf(err, "nav: %s", op)
	}
	if resp.IsError() {
		return eris.Errorf("nav: %s: driver returned %s", op, resp.Status())
	}
	return nil
}
