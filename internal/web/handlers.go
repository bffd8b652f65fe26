package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/dialect/internal/core"
	"github.com/JonMunkholm/dialect/internal/logging"
	"github.com/JonMunkholm/dialect/internal/value"
	"github.com/JonMunkholm/dialect/internal/web/templates"
	"github.com/JonMunkholm/dialect/internal/xml"
)

// CSVParseResponse is the JSON body returned by /api/csv/parse.
type CSVParseResponse struct {
	JobID   string          `json:"job_id"`
	Columns []string        `json:"columns"`
	Rows    []value.WireRow `json:"rows"`
}

// XMLParseResponse is the JSON body returned by /api/xml/parse.
type XMLParseResponse struct {
	JobID    string       `json:"job_id"`
	Elements int          `json:"elements"`
	Root     *xml.Element `json:"root"`
}

// LoadResponse is the JSON body returned by /api/tables/{table}/load.
type LoadResponse struct {
	JobID   string   `json:"job_id"`
	Table   string   `json:"table"`
	Rows    int      `json:"rows"`
	Columns []string `json:"columns"`
}

type csvSerializeRequest struct {
	Rows    json.RawMessage     `json:"rows"`
	Options csvSerializeOptions `json:"options"`
}

type xmlSerializeRequest struct {
	Root    json.RawMessage     `json:"root"`
	Options xmlSerializeOptions `json:"options"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// handleStatus reports job limiter occupancy and whether tables are enabled.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"jobs":   s.service.Limiter().Status(),
		"tables": s.service.StoreEnabled(),
	})
}

// readBody reads the request body within the configured size limit.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	limit := s.cfg.Limits.MaxBodySize
	return core.ReadBody(http.MaxBytesReader(w, r.Body, limit+1), limit)
}

func (s *Server) handleCSVParse(w http.ResponseWriter, r *http.Request) {
	opts, err := parseCSVOptions(r.URL.Query())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	data, err := s.readBody(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	rows, res, err := s.service.ParseCSV(withRequestMetadata(r), data, opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, CSVParseResponse{
		JobID:   res.JobID,
		Columns: res.Columns,
		Rows:    value.EncodeRows(rows),
	})
}

// handleCSVPreview parses like handleCSVParse and renders the first rows as
// an HTML table.
func (s *Server) handleCSVPreview(w http.ResponseWriter, r *http.Request) {
	opts, err := parseCSVOptions(r.URL.Query())
	if err != nil {
		s.respondPartialError(w, r, err)
		return
	}
	data, err := s.readBody(w, r)
	if err != nil {
		s.respondPartialError(w, r, err)
		return
	}

	rows, res, err := s.service.ParseCSV(withRequestMetadata(r), data, opts)
	if err != nil {
		s.respondPartialError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.PreviewTable(res.JobID, res.Columns, rows).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render preview", "error", err)
	}
}

func (s *Server) handleCSVSerialize(w http.ResponseWriter, r *http.Request) {
	data, err := s.readBody(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req csvSerializeRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %v", core.ErrInvalidOptions, err))
		return
	}
	var wire []value.WireRow
	if len(req.Rows) > 0 {
		if err := json.Unmarshal(req.Rows, &wire); err != nil {
			s.respondError(w, r, fmt.Errorf("%w: %v", core.ErrInvalidRows, err))
			return
		}
	}

	out, res, err := s.service.SerializeCSV(withRequestMetadata(r), value.DecodeRows(wire), req.Options.config())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("X-Job-ID", res.JobID)
	_, _ = w.Write(out)
}

func (s *Server) handleXMLParse(w http.ResponseWriter, r *http.Request) {
	preserve, err := boolParam(r.URL.Query(), "preserve_whitespace", false)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	data, err := s.readBody(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	root, res, err := s.service.ParseXML(withRequestMetadata(r), data, xml.ParseConfig{PreserveWhitespace: preserve})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, XMLParseResponse{JobID: res.JobID, Elements: res.Rows, Root: root})
}

func (s *Server) handleXMLSerialize(w http.ResponseWriter, r *http.Request) {
	data, err := s.readBody(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req xmlSerializeRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %v", core.ErrInvalidOptions, err))
		return
	}
	if len(req.Root) == 0 || string(req.Root) == "null" {
		s.respondError(w, r, fmt.Errorf("%w: missing root element", xml.ErrInvalidTree))
		return
	}
	root := new(xml.Element)
	if err := json.Unmarshal(req.Root, root); err != nil {
		if !errors.Is(err, xml.ErrInvalidTree) {
			err = fmt.Errorf("%w: %v", xml.ErrInvalidTree, err)
		}
		s.respondError(w, r, err)
		return
	}

	out, res, err := s.service.SerializeXML(withRequestMetadata(r), root, req.Options.config())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("X-Job-ID", res.JobID)
	_, _ = w.Write(out)
}

func (s *Server) handleTableLoad(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")

	opts, err := parseCSVOptions(r.URL.Query())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	data, err := s.readBody(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	res, err := s.service.LoadCSV(withRequestMetadata(r), table, data, opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, LoadResponse{JobID: res.JobID, Table: table, Rows: res.Rows, Columns: res.Columns})
}

func (s *Server) handleTableExport(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")

	opts, limit, err := exportOptions(r.URL.Query(), s.cfg.Export)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	out, res, err := s.service.ExportCSV(withRequestMetadata(r), table, limit, opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(table+".csv"))
	w.Header().Set("X-Job-ID", res.JobID)
	w.Header().Set("X-Row-Count", strconv.Itoa(res.Rows))
	_, _ = w.Write(out)
}
