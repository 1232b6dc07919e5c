package api

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"opticost/core/output"
	"opticost/internal/errors"
	"opticost/internal/logging"
	"opticost/internal/quoting"
)

var contentTypes = map[output.Format]string{
	output.FormatCLI:      "text/plain; charset=utf-8",
	output.FormatJSON:     "application/json",
	output.FormatMarkdown: "text/markdown; charset=utf-8",
	output.FormatXLSX:     "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// handleQuote handles POST /quote
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	report, err := s.quote(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, report, http.StatusOK)
}

// handleQuoteFormat handles POST /quote/{format}, rendering the report
// the way the CLI would
func (s *Server) handleQuoteFormat(w http.ResponseWriter, r *http.Request) {
	format, err := output.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	formatter, err := output.New(format, output.Options{NoColor: true, ShowSchedule: true})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	report, err := s.quote(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := formatter.Render(&buf, report); err != nil {
		s.writeError(w, r, errors.Internal("render quote", err))
		return
	}

	w.Header().Set("Content-Type", contentTypes[format])
	if format.Binary() {
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="quote-%s.xlsx"`, report.ID))
	}
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// quote decodes the request body and runs the quoting service
func (s *Server) quote(w http.ResponseWriter, r *http.Request) (*output.Report, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)

	var req QuoteRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return nil, errors.Wrap(errors.TypeInput, "invalid request body", err)
	}
	if req.Job == nil {
		return nil, errors.Input("job is required")
	}

	quoter := s.quoter
	if req.ExternalPolicy != "" {
		if !req.ExternalPolicy.IsValid() {
			return nil, errors.Newf(errors.TypeInput, "unknown external policy %q", req.ExternalPolicy)
		}
		quoter.Policy = req.ExternalPolicy
	}

	return quoter.Quote(r.Context(), s.Tables(), quoting.Request{
		Spec:      req.Job,
		Logistics: req.Logistics,
	})
}

// handleRates handles GET /rates
func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	tables := s.Tables()
	if tables == nil {
		s.writeError(w, r, errors.New(errors.TypeConfig, "rate tables are not loaded"))
		return
	}
	s.writeJSON(w, tables, http.StatusOK)
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "healthy",
		Version: s.version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}
	status := http.StatusOK
	if tables := s.Tables(); tables != nil {
		resp.TablesLoadedAt = tables.LoadedAt.Format(time.RFC3339)
	} else {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, resp, status)
}

// handleVersion handles GET /version
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, VersionResponse{
		Version:    s.version,
		Engine:     "opticost",
		APIVersion: "v1",
	}, http.StatusOK)
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Warn("write response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	code := string(errors.TypeOf(err))
	if code == "" {
		code = string(errors.TypeInternal)
	}
	if status >= http.StatusInternalServerError {
		logging.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	s.writeJSON(w, ErrorResponse{Error: ErrorBody{
		Code:      code,
		Message:   err.Error(),
		RequestID: middleware.GetReqID(r.Context()),
	}}, status)
}

// statusFor maps an error to its HTTP status
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	switch errors.TypeOf(err) {
	case errors.TypeInput, errors.TypeParsing:
		return http.StatusBadRequest
	case errors.TypeNotFound:
		return http.StatusNotFound
	case errors.TypeConfig:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
