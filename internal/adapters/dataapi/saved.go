package dataapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"insightboard/internal/core/dataset"
	"insightboard/internal/core/filter"
	"insightboard/internal/core/query"
	perr "insightboard/internal/platform/errors"
)

// SavedFilter is a named snapshot of a filter model kept by the API
type SavedFilter struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Filters   filter.Model `json:"filters"`
	CreatedAt time.Time    `json:"createdAt,omitzero"`
}

// UnmarshalJSON accepts "_id" as well as "id"
func (s *SavedFilter) UnmarshalJSON(b []byte) error {
	type plain SavedFilter
	var aux struct {
		plain
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*s = SavedFilter(aux.plain)
	if s.ID == "" {
		s.ID = aux.MongoID
	}
	s.Filters = filter.Normalize(s.Filters)
	return nil
}

// Export is a file produced by the API's export endpoint
type Export struct {
	Format      dataset.ExportFormat
	ContentType string
	Body        []byte
}

// Export asks the API to render the rows matching m in format
func (c *Client) Export(ctx context.Context, format dataset.ExportFormat, m filter.Model) (Export, error) {
	f, err := dataset.ParseExportFormat(string(format))
	if err != nil {
		rejectedTotal.WithLabelValues("export").Inc()
		return Export{}, perr.WithOp(err, "dataapi.export")
	}
	resp, err := c.do(ctx, request{
		endpoint: "export",
		method:   http.MethodPost,
		path:     "/data/export",
		body:     map[string]any{"format": f, "filters": query.Encode(m)},
	})
	if err != nil {
		return Export{}, err
	}
	return Export{Format: f, ContentType: resp.contentType, Body: resp.body}, nil
}

// SaveFilter stores m under name and returns the stored entry
func (c *Client) SaveFilter(ctx context.Context, name string, m filter.Model) (SavedFilter, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		rejectedTotal.WithLabelValues("save_filter").Inc()
		err := perr.WithField(perr.InvalidArgf("filter name is required"), "name")
		return SavedFilter{}, perr.WithOp(err, "dataapi.save_filter")
	}
	m = filter.Normalize(m)
	resp, err := c.do(ctx, request{
		endpoint: "save_filter",
		method:   http.MethodPost,
		path:     "/filters/save",
		body:     map[string]any{"name": name, "filters": m},
	})
	if err != nil {
		return SavedFilter{}, err
	}

	var out SavedFilter
	if err := decode(unwrap(resp.body, "filter", "data"), &out, "saved filter"); err != nil {
		return SavedFilter{}, err
	}
	if out.Name == "" {
		out.Name = name
	}
	if filter.IsEmpty(out.Filters) {
		out.Filters = m
	}
	return out, nil
}

// SavedFilters lists the stored filters
func (c *Client) SavedFilters(ctx context.Context) ([]SavedFilter, error) {
	resp, err := c.do(ctx, request{endpoint: "list_filters", method: http.MethodGet, path: "/filters"})
	if err != nil {
		return nil, err
	}
	out := []SavedFilter{}
	if err := decode(unwrap(resp.body, "filters", "data"), &out, "saved filters"); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteFilter removes one stored filter
func (c *Client) DeleteFilter(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		rejectedTotal.WithLabelValues("delete_filter").Inc()
		err := perr.WithField(perr.InvalidArgf("filter id is required"), "id")
		return perr.WithOp(err, "dataapi.delete_filter")
	}
	_, err := c.do(ctx, request{endpoint: "delete_filter", method: http.MethodDelete, path: "/filters/" + url.PathEscape(id)})
	return err
}

// unwrap returns the first present envelope member of b, or b itself
func unwrap(b []byte, keys ...string) []byte {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return b
	}
	var env map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return b
	}
	for _, k := range keys {
		if v, ok := env[k]; ok && !bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return v
		}
	}
	return b
}
