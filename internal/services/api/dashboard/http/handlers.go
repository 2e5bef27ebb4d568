// Package http provides http transport for the dashboard
package http

import (
	stdhttp "net/http"
	"strconv"
	"strings"

	"insightboard/internal/core/filter"
	"insightboard/internal/modkit/httpkit"
	perr "insightboard/internal/platform/errors"
	"insightboard/internal/platform/net/http/bind"
	"insightboard/internal/services/api/dashboard/domain"

	"github.com/go-chi/chi/v5"
)

// ReplaceInput swaps in a whole filter
// the filter is vetted after canonical casing is applied, not on the raw payload
type ReplaceInput struct {
	Filters filter.Model `json:"filters" validate:"-"`
}

// Register mounts dashboard endpoints on the given router
func Register(r httpkit.Router, s domain.ServicePort, o Options) {
	h := &handlers{svc: s, opts: o.withDefaults()}

	// session
	httpkit.Get(r, "/session", h.session)
	httpkit.Delete(r, "/session", h.endSession)
	httpkit.PutJSON[domain.TokenInput](r, "/session/token", h.setToken)
	httpkit.Delete(r, "/session/token", h.clearToken)

	// filters
	httpkit.Get(r, "/filters", h.filters)
	httpkit.PutJSON[ReplaceInput](r, "/filters", h.replace)
	httpkit.PatchJSON[domain.PatchInput](r, "/filters", h.patch)
	httpkit.Delete(r, "/filters", h.clearAll)
	httpkit.Get(r, "/filters/history", h.history)
	httpkit.Post(r, "/filters/revert", h.revert)
	httpkit.PutJSON[domain.SetFieldInput](r, "/filters/{field}", h.setField)
	httpkit.Delete(r, "/filters/{field}", h.clearField)

	// presets and saved filters
	httpkit.Get(r, "/presets", h.presets)
	httpkit.PostJSON[domain.ApplyPresetInput](r, "/presets/apply", h.applyPreset)
	httpkit.Get(r, "/saved", h.saved)
	httpkit.PostJSON[domain.SaveFilterInput](r, "/saved", h.save)
	httpkit.Post(r, "/saved/{id}/apply", h.applySaved)
	httpkit.Delete(r, "/saved/{id}", h.deleteSaved)

	// views
	httpkit.Get(r, "/views", h.views)
	httpkit.Get(r, "/views/{id}", h.view)
	httpkit.Post(r, "/views/{id}/refresh", h.refresh)
	httpkit.Get(r, "/overview", h.overview)

	// data
	httpkit.Get(r, "/stats", h.stats)
	httpkit.PostJSON[domain.RecordsQuery](r, "/records", h.records)
	httpkit.PostJSON[domain.OptionsQuery](r, "/options", h.options)
	httpkit.Get(r, "/topics/{topic}", h.topic)
	r.Post("/export", h.export)

	// push
	r.Get("/ws", h.watch)
}

type handlers struct {
	svc  domain.ServicePort
	opts Options
}

// swagger:route GET /dashboard/session Dashboard dashboardSession
// @Summary Describe the caller's session
// @Tags Dashboard
// @Produce json
// @Param X-Session-ID header string false "Session id"
// @Success 200 {object} domain.SessionInfo "ok"
// @Router /dashboard/session [get]
func (h *handlers) session(r *stdhttp.Request) (any, error) {
	return h.svc.Session(r.Context())
}

// swagger:route DELETE /dashboard/session Dashboard dashboardEndSession
// @Summary End the caller's session
// @Tags Dashboard
// @Produce json
// @Success 200 {object} map[string]bool "ok"
// @Failure 404 {object} httpkit.Envelope "no such session"
// @Router /dashboard/session [delete]
func (h *handlers) endSession(r *stdhttp.Request) (any, error) {
	if err := h.svc.EndSession(r.Context()); err != nil {
		return nil, err
	}
	return map[string]bool{"ended": true}, nil
}

// swagger:route PUT /dashboard/session/token Dashboard dashboardSetToken
// @Summary Set the data API token of the session
// @Tags Dashboard
// @Accept json
// @Produce json
// @Param payload body domain.TokenInput true "Token"
// @Success 200 {object} domain.SessionInfo "ok"
// @Router /dashboard/session/token [put]
func (h *handlers) setToken(r *stdhttp.Request, in domain.TokenInput) (any, error) {
	return h.svc.SetToken(r.Context(), in)
}

// swagger:route DELETE /dashboard/session/token Dashboard dashboardClearToken
// @Summary Drop the data API token of the session
// @Tags Dashboard
// @Produce json
// @Success 200 {object} domain.SessionInfo "ok"
// @Router /dashboard/session/token [delete]
func (h *handlers) clearToken(r *stdhttp.Request) (any, error) {
	return h.svc.ClearToken(r.Context())
}

// swagger:route GET /dashboard/filters Dashboard dashboardFilters
// @Summary Current filter
// @Tags Dashboard
// @Produce json
// @Success 200 {object} domain.FilterState "ok"
// @Router /dashboard/filters [get]
func (h *handlers) filters(r *stdhttp.Request) (any, error) {
	return h.svc.Filters(r.Context())
}

// swagger:route PUT /dashboard/filters Dashboard dashboardReplaceFilters
// @Summary Replace the whole filter
// @Tags Dashboard
// @Accept json
// @Produce json
// @Param payload body ReplaceInput true "Filter"
// @Success 200 {object} domain.FilterState "ok"
// @Failure 400 {object} httpkit.Envelope "invalid filter"
// @Router /dashboard/filters [put]
func (h *handlers) replace(r *stdhttp.Request, in ReplaceInput) (any, error) {
	return h.svc.ReplaceFilters(r.Context(), in.Filters)
}

// swagger:route PATCH /dashboard/filters Dashboard dashboardPatchFilters
// @Summary Replace several fields as one change
// @Tags Dashboard
// @Accept json
// @Produce json
// @Param payload body domain.PatchInput true "Fields"
// @Success 200 {object} domain.FilterState "ok"
// @Failure 400 {object} httpkit.Envelope "invalid filter"
// @Router /dashboard/filters [patch]
func (h *handlers) patch(r *stdhttp.Request, in domain.PatchInput) (any, error) {
	return h.svc.Patch(r.Context(), in)
}

// swagger:route DELETE /dashboard/filters Dashboard dashboardClearFilters
// @Summary Clear every field
// @Tags Dashboard
// @Produce json
// @Success 200 {object} domain.FilterState "ok"
// @Router /dashboard/filters [delete]
func (h *handlers) clearAll(r *stdhttp.Request) (any, error) {
	return h.svc.ClearAll(r.Context())
}

// swagger:route GET /dashboard/filters/history Dashboard dashboardHistory
// @Summary Undo steps, newest first
// @Tags Dashboard
// @Produce json
// @Success 200 {array} domain.HistoryEntry "ok"
// @Router /dashboard/filters/history [get]
func (h *handlers) history(r *stdhttp.Request) (any, error) {
	return h.svc.History(r.Context())
}

// swagger:route POST /dashboard/filters/revert Dashboard dashboardRevert
// @Summary Undo the latest filter change
// @Tags Dashboard
// @Produce json
// @Success 200 {object} domain.FilterState "ok"
// @Failure 409 {object} httpkit.Envelope "nothing to revert"
// @Router /dashboard/filters/revert [post]
func (h *handlers) revert(r *stdhttp.Request) (any, error) {
	return h.svc.Revert(r.Context())
}

// swagger:route PUT /dashboard/filters/{field} Dashboard dashboardSetField
// @Summary Replace one field; null, "" or [] clear it
// @Tags Dashboard
// @Accept json
// @Produce json
// @Param field path string true "Field" example(topics)
// @Param payload body domain.SetFieldInput true "Value"
// @Success 200 {object} domain.FilterState "ok"
// @Failure 400 {object} httpkit.Envelope "invalid value"
// @Router /dashboard/filters/{field} [put]
func (h *handlers) setField(r *stdhttp.Request, in domain.SetFieldInput) (any, error) {
	return h.svc.SetField(r.Context(), chi.URLParam(r, "field"), in)
}

// swagger:route DELETE /dashboard/filters/{field} Dashboard dashboardClearField
// @Summary Clear one field
// @Tags Dashboard
// @Produce json
// @Param field path string true "Field" example(topics)
// @Success 200 {object} domain.FilterState "ok"
// @Router /dashboard/filters/{field} [delete]
func (h *handlers) clearField(r *stdhttp.Request) (any, error) {
	return h.svc.ClearField(r.Context(), chi.URLParam(r, "field"))
}

// swagger:route GET /dashboard/presets Dashboard dashboardPresets
// @Summary Configured filter presets
// @Tags Dashboard
// @Produce json
// @Success 200 {array} domain.Preset "ok"
// @Router /dashboard/presets [get]
func (h *handlers) presets(r *stdhttp.Request) (any, error) {
	return h.svc.Presets(r.Context())
}

// swagger:route POST /dashboard/presets/apply Dashboard dashboardApplyPreset
// @Summary Load a preset into the session
// @Tags Dashboard
// @Accept json
// @Produce json
// @Param payload body domain.ApplyPresetInput true "Preset"
// @Success 200 {object} domain.FilterState "ok"
// @Failure 404 {object} httpkit.Envelope "no such preset"
// @Router /dashboard/presets/apply [post]
func (h *handlers) applyPreset(r *stdhttp.Request, in domain.ApplyPresetInput) (any, error) {
	return h.svc.ApplyPreset(r.Context(), in)
}

// swagger:route GET /dashboard/saved Dashboard dashboardSaved
// @Summary Saved filters
// @Tags Dashboard
// @Produce json
// @Success 200 {array} domain.SavedFilter "ok"
// @Router /dashboard/saved [get]
func (h *handlers) saved(r *stdhttp.Request) (any, error) {
	return h.svc.SavedFilters(r.Context())
}

// swagger:route POST /dashboard/saved Dashboard dashboardSave
// @Summary Save the current filter
// @Tags Dashboard
// @Accept json
// @Produce json
// @Param payload body domain.SaveFilterInput true "Name"
// @Success 201 {object} domain.SavedFilter "created"
// @Router /dashboard/saved [post]
func (h *handlers) save(r *stdhttp.Request, in domain.SaveFilterInput) (any, error) {
	out, err := h.svc.SaveFilter(r.Context(), in)
	if err != nil {
		return nil, err
	}
	return httpkit.Created(out), nil
}

// swagger:route POST /dashboard/saved/{id}/apply Dashboard dashboardApplySaved
// @Summary Load a saved filter into the session
// @Tags Dashboard
// @Produce json
// @Param id path string true "Saved filter id"
// @Success 200 {object} domain.FilterState "ok"
// @Failure 404 {object} httpkit.Envelope "no such filter"
// @Router /dashboard/saved/{id}/apply [post]
func (h *handlers) applySaved(r *stdhttp.Request) (any, error) {
	return h.svc.ApplySaved(r.Context(), chi.URLParam(r, "id"))
}

// swagger:route DELETE /dashboard/saved/{id} Dashboard dashboardDeleteSaved
// @Summary Delete a saved filter
// @Tags Dashboard
// @Produce json
// @Param id path string true "Saved filter id"
// @Success 200 {object} map[string]bool "ok"
// @Router /dashboard/saved/{id} [delete]
func (h *handlers) deleteSaved(r *stdhttp.Request) (any, error) {
	if err := h.svc.DeleteSaved(r.Context(), chi.URLParam(r, "id")); err != nil {
		return nil, err
	}
	return map[string]bool{"deleted": true}, nil
}

// swagger:route GET /dashboard/views Dashboard dashboardViews
// @Summary Every view of the session
// @Tags Dashboard
// @Produce json
// @Success 200 {array} domain.ViewSnapshot "ok"
// @Router /dashboard/views [get]
func (h *handlers) views(r *stdhttp.Request) (any, error) {
	return h.svc.Views(r.Context())
}

// swagger:route GET /dashboard/views/{id} Dashboard dashboardView
// @Summary One view
// @Tags Dashboard
// @Produce json
// @Param id path string true "View id" example(intensity)
// @Param by query string false "Intensity grouping" Enums(country, sector, region)
// @Param wait query bool false "Block until the view settles"
// @Success 200 {object} domain.ViewSnapshot "ok"
// @Failure 404 {object} httpkit.Envelope "no such view"
// @Router /dashboard/views/{id} [get]
func (h *handlers) view(r *stdhttp.Request) (any, error) {
	in, err := viewParams(r)
	if err != nil {
		return nil, err
	}
	return h.svc.View(r.Context(), chi.URLParam(r, "id"), in)
}

// swagger:route POST /dashboard/views/{id}/refresh Dashboard dashboardRefresh
// @Summary Reload one view with the current filter
// @Tags Dashboard
// @Produce json
// @Param id path string true "View id" example(topics)
// @Success 200 {object} domain.ViewSnapshot "ok"
// @Router /dashboard/views/{id}/refresh [post]
func (h *handlers) refresh(r *stdhttp.Request) (any, error) {
	return h.svc.Refresh(r.Context(), chi.URLParam(r, "id"))
}

// swagger:route GET /dashboard/overview Dashboard dashboardOverview
// @Summary Stats and every view in one round
// @Tags Dashboard
// @Produce json
// @Success 200 {object} domain.Overview "ok"
// @Router /dashboard/overview [get]
func (h *handlers) overview(r *stdhttp.Request) (any, error) {
	return h.svc.Overview(r.Context())
}

// swagger:route GET /dashboard/stats Dashboard dashboardStats
// @Summary Summary statistics of the current filter
// @Tags Dashboard
// @Produce json
// @Success 200 {object} dataset.Stats "ok"
// @Router /dashboard/stats [get]
func (h *handlers) stats(r *stdhttp.Request) (any, error) {
	return h.svc.Stats(r.Context())
}

// swagger:route POST /dashboard/records Dashboard dashboardRecords
// @Summary Raw records of the current filter
// @Tags Dashboard
// @Accept json
// @Produce json
// @Param payload body domain.RecordsQuery true "Page"
// @Success 200 {array} dataset.Record "data holds the rows, page the pagination block"
// @Router /dashboard/records [post]
func (h *handlers) records(r *stdhttp.Request, in domain.RecordsQuery) (any, error) {
	p, err := h.svc.Records(r.Context(), in)
	if err != nil {
		return nil, err
	}
	return httpkit.List(p.Data, p.Pagination.Total, p.Pagination.Page, p.Pagination.Limit, ""), nil
}

// swagger:route POST /dashboard/options Dashboard dashboardOptions
// @Summary Browse the values of one filterable column
// @Tags Dashboard
// @Accept json
// @Produce json
// @Param payload body domain.OptionsQuery true "Query"
// @Success 200 {array} dataset.OptionCount "ok"
// @Router /dashboard/options [post]
func (h *handlers) options(r *stdhttp.Request, in domain.OptionsQuery) (any, error) {
	return h.svc.Options(r.Context(), in)
}

// swagger:route GET /dashboard/topics/{topic} Dashboard dashboardTopic
// @Summary Likelihood breakdown of one topic
// @Tags Dashboard
// @Produce json
// @Param topic path string true "Topic" example(oil)
// @Success 200 {object} domain.TopicDetail "ok"
// @Failure 404 {object} httpkit.Envelope "no data"
// @Router /dashboard/topics/{topic} [get]
func (h *handlers) topic(r *stdhttp.Request) (any, error) {
	return h.svc.Topic(r.Context(), chi.URLParam(r, "topic"))
}

// swagger:route POST /dashboard/export Dashboard dashboardExport
// @Summary Download the current filter's records
// @Tags Dashboard
// @Accept json
// @Produce text/csv,application/json,application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param payload body domain.ExportInput false "Format and source"
// @Success 200 {file} file "export"
// @Router /dashboard/export [post]
func (h *handlers) export(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	in, err := bind.ParseJSON[domain.ExportInput](r, bind.JSONOptions{
		MaxBytes:        1 << 16,
		DisallowUnknown: true,
		AllowEmptyBody:  true,
	})
	if err != nil {
		httpkit.WriteError(w, r, err)
		return
	}
	f, err := h.svc.Export(r.Context(), in)
	if err != nil {
		httpkit.WriteError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", f.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+f.Name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(f.Body)))
	w.WriteHeader(stdhttp.StatusOK)
	_, _ = w.Write(f.Body)
}

// viewParams reads ?by= and ?wait= of a view request
func viewParams(r *stdhttp.Request) (domain.ViewParams, error) {
	q := r.URL.Query()
	in := domain.ViewParams{By: strings.ToLower(strings.TrimSpace(q.Get("by")))}
	if raw := q.Get("wait"); raw != "" {
		w, err := strconv.ParseBool(raw)
		if err != nil {
			return domain.ViewParams{}, perr.WithField(perr.Validationf("wait must be a boolean"), "wait")
		}
		in.Wait = w
	}
	if err := bind.Struct(in); err != nil {
		return domain.ViewParams{}, err
	}
	return in, nil
}
