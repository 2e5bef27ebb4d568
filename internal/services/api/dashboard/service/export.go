package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"insightboard/internal/core/dataset"
	"insightboard/internal/core/filter"
	perr "insightboard/internal/platform/errors"
	"insightboard/internal/services/api/dashboard/domain"

	"github.com/xuri/excelize/v2"
)

// content types of rendered exports
const (
	contentCSV   = "text/csv; charset=utf-8"
	contentJSON  = "application/json"
	contentExcel = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

const sheetName = "Records"

// column is one exported record attribute
type column struct {
	name string
	get  func(dataset.Record) string
	num  bool
}

var columns = []column{
	{"id", func(r dataset.Record) string { return r.ID }, false},
	{"title", func(r dataset.Record) string { return r.Title }, false},
	{"topic", func(r dataset.Record) string { return r.Topic }, false},
	{"sector", func(r dataset.Record) string { return r.Sector }, false},
	{"region", func(r dataset.Record) string { return r.Region }, false},
	{"country", func(r dataset.Record) string { return r.Country }, false},
	{"city", func(r dataset.Record) string { return r.City }, false},
	{"pestle", func(r dataset.Record) string { return r.Pestle }, false},
	{"source", func(r dataset.Record) string { return r.Source }, false},
	{"swot", func(r dataset.Record) string { return r.SWOT }, false},
	{"intensity", func(r dataset.Record) string { return r.Intensity.String() }, true},
	{"likelihood", func(r dataset.Record) string { return r.Likelihood.String() }, true},
	{"relevance", func(r dataset.Record) string { return r.Relevance.String() }, true},
	{"impact", func(r dataset.Record) string { return r.Impact.String() }, true},
	{"start_year", func(r dataset.Record) string { return r.StartYear.String() }, true},
	{"end_year", func(r dataset.Record) string { return r.EndYear.String() }, true},
	{"url", func(r dataset.Record) string { return r.URL }, false},
	{"published", func(r dataset.Record) string { return r.Published }, false},
}

// Export renders the records of the session's filter as a file
// local renders one records page here; remote has the data API render the whole set
func (s *Svc) Export(ctx context.Context, in domain.ExportInput) (domain.ExportFile, error) {
	b, err := s.board(ctx)
	if err != nil {
		return domain.ExportFile{}, err
	}
	format, err := dataset.ParseExportFormat(in.Format)
	if err != nil {
		return domain.ExportFile{}, err
	}
	source := in.Source
	if source == "" {
		source = domain.SourceLocal
	}
	m := b.store.State()
	name := exportName(m, format, s.now())

	var out domain.ExportFile
	switch source {
	case domain.SourceRemote:
		x, err := b.data.Export(ctx, format, m)
		if err != nil {
			return domain.ExportFile{}, err
		}
		ct := x.ContentType
		if ct == "" {
			ct = contentType(format)
		}
		out = domain.ExportFile{Name: name, ContentType: ct, Body: x.Body}
	case domain.SourceLocal:
		page, err := b.data.FetchRecords(ctx, m, in.Page, b.data.ClampLimit(in.Limit))
		if err != nil {
			return domain.ExportFile{}, err
		}
		body, err := Render(format, page.Data)
		if err != nil {
			return domain.ExportFile{}, err
		}
		out = domain.ExportFile{Name: name, ContentType: contentType(format), Body: body}
	default:
		return domain.ExportFile{}, perr.WithField(perr.InvalidArgf("unknown export source %q", in.Source), "source")
	}

	exportsTotal.WithLabelValues(string(format), source).Inc()
	s.log.Info().
		Str("session", b.id).
		Str("format", string(format)).
		Str("source", source).
		Int("bytes", len(out.Body)).
		Msg("dashboard export")
	return out, nil
}

// Render writes records in format
func Render(format dataset.ExportFormat, rows []dataset.Record) ([]byte, error) {
	switch format {
	case dataset.ExportCSV:
		return renderCSV(rows)
	case dataset.ExportJSON:
		if rows == nil {
			rows = []dataset.Record{}
		}
		b, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "render json export")
		}
		return b, nil
	case dataset.ExportExcel:
		return renderExcel(rows)
	}
	return nil, perr.WithField(perr.InvalidArgf("unknown export format %q", string(format)), "format")
}

func renderCSV(rows []dataset.Record) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = c.name
	}
	if err := w.Write(header); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "render csv export")
	}
	rec := make([]string, len(columns))
	for _, r := range rows {
		for i, c := range columns {
			rec[i] = c.get(r)
		}
		if err := w.Write(rec); err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "render csv export")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "render csv export")
	}
	return buf.Bytes(), nil
}

func renderExcel(rows []dataset.Record) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "render excel export")
	}
	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = c.name
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "render excel export")
	}
	for n, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, n+2)
		if err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "render excel export")
		}
		vals := make([]any, len(columns))
		for i, c := range columns {
			if c.num {
				vals[i] = cellValue(c.get(r))
			} else {
				vals[i] = c.get(r)
			}
		}
		if err := f.SetSheetRow(sheetName, cell, &vals); err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "render excel export")
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "render excel export")
	}
	return buf.Bytes(), nil
}

// cellValue keeps numbers numeric in the sheet
func cellValue(s string) any {
	if s == "" {
		return s
	}
	n := json.Number(s)
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return s
}

func contentType(f dataset.ExportFormat) string {
	switch f {
	case dataset.ExportJSON:
		return contentJSON
	case dataset.ExportExcel:
		return contentExcel
	default:
		return contentCSV
	}
}

// exportName builds insights-<filters>-<date>.<ext>, e.g. insights-2f-20250101.csv
func exportName(m filter.Model, f dataset.ExportFormat, at time.Time) string {
	ext := string(f)
	if f == dataset.ExportExcel {
		ext = "xlsx"
	}
	parts := []string{"insights"}
	if n := filter.ActiveCount(m); n > 0 {
		parts = append(parts, fmt.Sprintf("%df", n))
	}
	parts = append(parts, at.UTC().Format("20060102"))
	return strings.Join(parts, "-") + "." + ext
}
