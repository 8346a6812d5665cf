package server

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/matzehuels/pqtree/pkg/buildinfo"
	"github.com/matzehuels/pqtree/pkg/errors"
	pqio "github.com/matzehuels/pqtree/pkg/io"
	"github.com/matzehuels/pqtree/pkg/render"
	"github.com/matzehuels/pqtree/pkg/scenario"
)

// FormatJSON renders the final tree in the JSON tree format.
const FormatJSON = "json"

var renderFormats = append(slices.Clip(render.Formats), FormatJSON)

var contentTypes = map[string]string{
	render.FormatDOT: "text/vnd.graphviz; charset=utf-8",
	render.FormatSVG: "image/svg+xml",
	render.FormatPNG: "image/png",
	render.FormatPDF: "application/pdf",
	FormatJSON:       "application/json",
}

type healthResponse struct {
	Status string `json:"status"`
	buildinfo.Info
}

type errorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

type errorResponse struct {
	Error  errorBody        `json:"error"`
	Result *scenario.Result `json:"result,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Info: buildinfo.Get()})
}

func (s *Server) handleScenario(w http.ResponseWriter, r *http.Request) {
	res, hit, ok := s.runDocument(w, r)
	if !ok {
		return
	}
	w.Header().Set("X-Cache", cacheHeader(hit))
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = render.FormatSVG
	}
	format, err := errors.ValidateFormat(format, renderFormats...)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}

	res, hit, ok := s.runDocument(w, r)
	if !ok {
		return
	}

	var body []byte
	if format == FormatJSON {
		body, err = treeJSON(res)
	} else {
		body, err = s.renderer.Render(r.Context(), res.DOT, format)
	}
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}

	etag := `"` + strconv.FormatUint(xxhash.Sum64(body), 16) + `"`
	w.Header().Set("ETag", etag)
	w.Header().Set("X-Cache", cacheHeader(hit))
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// runDocument reads the request body as a scenario and runs it. It writes
// the error response itself and reports ok == false on failure.
func (s *Server) runDocument(w http.ResponseWriter, r *http.Request) (*scenario.Result, bool, bool) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			err = errors.New(errors.ErrCodeInvalidInput, "request body exceeds %d bytes", tooLarge.Limit)
		}
		s.writeError(w, r, err, nil)
		return nil, false, false
	}
	if len(bytes.TrimSpace(data)) == 0 {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "empty scenario document"), nil)
		return nil, false, false
	}

	res, hit, err := s.runner.RunDocument(r.Context(), data, inputFormat(r))
	if err != nil {
		s.writeError(w, r, err, res)
		return nil, false, false
	}
	return res, hit, true
}

func inputFormat(r *http.Request) string {
	if f := r.URL.Query().Get("input"); f != "" {
		return f
	}
	if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		return scenario.FormatYAML
	}
	return scenario.FormatTOML
}

func treeJSON(res *scenario.Result) ([]byte, error) {
	t, err := res.Build()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := pqio.WriteJSON(t, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func cacheHeader(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}

// statusFor maps error codes to HTTP status codes.
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidScenario, errors.ErrCodeInvalidTree,
		errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidID:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeExpectation, errors.ErrCodeInvariant, errors.ErrCodeCycle:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeCanceled:
		return http.StatusServiceUnavailable
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, partial *scenario.Result) {
	status := statusFor(err)
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "id", RequestIDFromContext(r.Context()), "err", err)
	}
	writeJSON(w, status, errorResponse{
		Error:  errorBody{Code: code, Message: err.Error()},
		Result: partial,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
