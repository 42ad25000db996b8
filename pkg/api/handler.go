package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/hazyhaar/emplacamentos/pkg/dataset"
	"github.com/hazyhaar/emplacamentos/pkg/kit"
	"github.com/hazyhaar/emplacamentos/pkg/record"
	"github.com/hazyhaar/emplacamentos/pkg/sheet"
)

// maxUpload bounds the size of an uploaded spreadsheet.
const maxUpload = 64 << 20

// NewRouter returns an http.Handler with all API routes.
func NewRouter(eps *Endpoints) http.Handler {
	mux := http.NewServeMux()
	h := &handler{eps: eps}

	mux.HandleFunc("GET /v1/search", h.handleSearch)
	mux.HandleFunc("GET /v1/clients/{taxID}", h.handleProfile)
	mux.HandleFunc("GET /v1/market", h.handleMarket)
	mux.HandleFunc("GET /v1/inactive", h.handleInactive)
	mux.HandleFunc("GET /v1/inactive.xlsx", h.handleInactiveXLSX)
	mux.HandleFunc("GET /v1/inactive.csv", h.handleInactiveCSV)
	mux.HandleFunc("GET /v1/dataset", h.handleDataset)
	mux.HandleFunc("PUT /v1/dataset", h.handleUpload)
	mux.HandleFunc("GET /v1/health", h.handleHealth)

	return cors(requestContext(mux))
}

type handler struct {
	eps *Endpoints
}

// --- search ---

func (h *handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	resp, err := h.eps.Search(r.Context(), &searchReq{
		Query:  r.URL.Query().Get("q"),
		Filter: parseFilter(r),
	})
	if err != nil {
		writeEndpointError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- client profile ---

func (h *handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	resp, err := h.eps.Profile(r.Context(), &profileReq{
		TaxID:  r.PathValue("taxID"),
		Filter: parseFilter(r),
	})
	if err != nil {
		writeEndpointError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- market ---

func (h *handler) handleMarket(w http.ResponseWriter, r *http.Request) {
	req := &marketReq{Filter: parseFilter(r)}
	if v := r.URL.Query().Get("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "top must be a positive integer")
			return
		}
		req.TopCities = n
	}
	resp, err := h.eps.Market(r.Context(), req)
	if err != nil {
		writeEndpointError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- inactive report ---

func (h *handler) inactive(w http.ResponseWriter, r *http.Request) (InactiveResponse, bool) {
	resp, err := h.eps.Inactive(r.Context(), &inactiveReq{Filter: parseFilter(r)})
	if err != nil {
		writeEndpointError(w, err)
		return InactiveResponse{}, false
	}
	return resp.(InactiveResponse), true
}

func (h *handler) handleInactive(w http.ResponseWriter, r *http.Request) {
	if resp, ok := h.inactive(w, r); ok {
		writeJSON(w, http.StatusOK, resp)
	}
}

func (h *handler) handleInactiveXLSX(w http.ResponseWriter, r *http.Request) {
	resp, ok := h.inactive(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := sheet.WriteInactiveReport(&buf, resp.Clients); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="clientes_inativos.xlsx"`)
	w.Write(buf.Bytes())
}

func (h *handler) handleInactiveCSV(w http.ResponseWriter, r *http.Request) {
	resp, ok := h.inactive(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="clientes_inativos.csv"`)
	sheet.WriteInactiveCSV(w, resp.Clients)
}

// --- dataset ---

func (h *handler) handleDataset(w http.ResponseWriter, r *http.Request) {
	resp, err := h.eps.Dataset(r.Context(), nil)
	if err != nil {
		writeEndpointError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "missing name query parameter")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("read upload: %v", err))
		return
	}
	resp, err := h.eps.Upload(r.Context(), &uploadReq{Name: name, Data: data})
	if err != nil {
		writeEndpointError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- health ---

type healthResponse struct {
	Status  string `json:"status"`
	Records int    `json:"records"`
	Clients int    `json:"clients"`
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap, err := h.eps.store.Current()
	if err != nil {
		writeJSON(w, http.StatusOK, healthResponse{Status: "no_dataset"})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Records: len(snap.Records),
		Clients: snap.Index.Len(),
	})
}

// --- helpers ---

func parseFilter(r *http.Request) record.Filter {
	var f record.Filter
	if v := r.URL.Query().Get("brands"); v != "" {
		f.Brands = splitList(v)
	}
	if v := r.URL.Query().Get("segments"); v != "" {
		f.Segments = splitList(v)
	}
	return f
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// statusFor maps endpoint errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, dataset.ErrNoDataset):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrClientNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, record.ErrMissingColumn),
		errors.Is(err, record.ErrEmptyTable),
		errors.Is(err, record.ErrNoValidRecords),
		errors.Is(err, sheet.ErrUnsupportedFormat):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeEndpointError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// requestContext tags the request context with the HTTP transport and the
// caller's X-Request-ID, if any.
func requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := kit.WithTransport(r.Context(), "http")
		if id := r.Header.Get("X-Request-ID"); id != "" {
			ctx = kit.WithRequestID(ctx, id)
			w.Header().Set("X-Request-ID", id)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// cors is a simple CORS middleware for browser-based clients.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
