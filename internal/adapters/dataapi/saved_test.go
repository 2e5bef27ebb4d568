package dataapi

import (
	"encoding/json"
	"io"
	"net/http"
	"reflect"
	"testing"

	"insightboard/internal/core/dataset"
	"insightboard/internal/core/filter"
	perr "insightboard/internal/platform/errors"
)

func TestSaveFilter_PostsModelAndDecodesEnvelope(t *testing.T) {
	var body struct {
		Name    string       `json:"name"`
		Filters filter.Model `json:"filters"`
	}
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/filters/save" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &body)
		writeJSON(w, 201, map[string]any{"filter": map[string]any{
			"_id":     "f1",
			"name":    "energy",
			"filters": map[string]any{"topics": []string{"A", "B"}, "startYear": 2020},
		}})
	})

	saved, err := c.SaveFilter(testContext(t), "  energy ", model(t))
	if err != nil {
		t.Fatalf("SaveFilter: %v", err)
	}
	if body.Name != "energy" || !filter.Equal(body.Filters, model(t)) {
		t.Fatalf("request body = %+v", body)
	}
	if saved.ID != "f1" || saved.Name != "energy" || !filter.Equal(saved.Filters, model(t)) {
		t.Fatalf("saved = %+v", saved)
	}
}

func TestSaveFilter_BareAckFallsBackToRequest(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]any{"success": true})
	})
	saved, err := c.SaveFilter(testContext(t), "mine", model(t))
	if err != nil {
		t.Fatalf("SaveFilter: %v", err)
	}
	if saved.Name != "mine" || !filter.Equal(saved.Filters, model(t)) {
		t.Fatalf("saved = %+v", saved)
	}
}

func TestSaveFilter_EmptyNameSendsNothing(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	_, err := c.SaveFilter(testContext(t), "  ", model(t))
	if !perr.IsCode(err, perr.ErrorCodeInvalidArgument) || calls.Load() != 0 {
		t.Fatalf("err=%v calls=%d", err, calls.Load())
	}
}

func TestSavedFilters_ListShapes(t *testing.T) {
	bodies := []string{
		`{"filters":[{"_id":"a","name":"one","filters":{"swot":"threat"}}]}`,
		`{"data":[{"id":"a","name":"one","filters":{"swot":"threat"}}]}`,
		`[{"id":"a","name":"one","filters":{"swot":"threat"}}]`,
	}
	for _, b := range bodies {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet || r.URL.Path != "/api/filters" {
				t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(b))
		})
		list, err := c.SavedFilters(testContext(t))
		if err != nil {
			t.Fatalf("SavedFilters(%s): %v", b, err)
		}
		if len(list) != 1 || list[0].ID != "a" || list[0].Name != "one" {
			t.Fatalf("list = %+v", list)
		}
		if s, _ := filter.Get(list[0].Filters, filter.FieldSWOT).Text(); s != "threat" {
			t.Fatalf("filters = %+v", list[0].Filters)
		}
	}
}

func TestDeleteFilter_EscapesID(t *testing.T) {
	var path string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s", r.Method)
		}
		path = r.URL.EscapedPath()
		w.WriteHeader(http.StatusNoContent)
	})
	if err := c.DeleteFilter(testContext(t), "a/b"); err != nil {
		t.Fatalf("DeleteFilter: %v", err)
	}
	if path != "/api/filters/a%2Fb" {
		t.Fatalf("path = %q", path)
	}
	if err := c.DeleteFilter(testContext(t), ""); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("empty id err = %v", err)
	}
}

func TestDeleteFilter_NotFound(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 404, map[string]string{"error": "missing"})
	})
	err := c.DeleteFilter(testContext(t), "gone")
	if !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestExport(t *testing.T) {
	var body map[string]any
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &body)
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("topic\noil\n"))
	})

	exp, err := c.Export(testContext(t), "", model(t))
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if exp.Format != dataset.ExportCSV || exp.ContentType != "text/csv" || string(exp.Body) != "topic\noil\n" {
		t.Fatalf("export = %+v", exp)
	}
	want := map[string]any{"format": "csv", "filters": map[string]any{"startYear": "2020", "topics": "A,B"}}
	if !reflect.DeepEqual(body, want) {
		t.Fatalf("body = %#v", body)
	}

	if _, err := c.Export(testContext(t), "pdf", model(t)); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("pdf err = %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1", calls.Load())
	}
}
