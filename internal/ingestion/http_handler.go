package ingestion

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/rpattn/munimport/internal/auth"
	"github.com/rpattn/munimport/internal/domain"
)

// Handler exposes ingestion over HTTP.
type Handler struct {
	service        *Service
	maxUploadBytes int64
	mux            *http.ServeMux
}

type HandlerOption func(*Handler)

func WithMaxUploadBytes(n int64) HandlerOption {
	return func(h *Handler) {
		if n > 0 {
			h.maxUploadBytes = n
		}
	}
}

// NewHTTPHandler mounts the import routes:
//
//	POST /imports                 one-shot import (multipart: file, context, mode, ownerId)
//	POST /imports/inspect         parse and detect, returns a commit token
//	POST /imports/{token}/commit  load a staged upload (form or JSON: mode, ownerId)
//	GET  /imports/logs            ingestion history
//	GET  /imports/logs/{id}       one ingestion log entry
func NewHTTPHandler(service *Service, opts ...HandlerOption) http.Handler {
	h := &Handler{service: service, maxUploadBytes: 32 << 20, mux: http.NewServeMux()}
	for _, opt := range opts {
		opt(h)
	}
	h.mux.HandleFunc("POST /imports", h.handleImport)
	h.mux.HandleFunc("POST /imports/inspect", h.handleInspect)
	h.mux.HandleFunc("POST /imports/{token}/commit", h.handleCommit)
	h.mux.HandleFunc("GET /imports/logs", h.handleListLogs)
	h.mux.HandleFunc("GET /imports/logs/{id}", h.handleGetLog)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

type upload struct {
	ownerID  uuid.UUID
	fileName string
	context  domain.ImportContext
	mode     string
	data     []byte
}

func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (upload, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		http.Error(w, fmt.Sprintf("invalid form data: %v", err), http.StatusBadRequest)
		return upload{}, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, fmt.Sprintf("file required: %v", err), http.StatusBadRequest)
		return upload{}, false
	}
	defer file.Close()

	ownerID, err := auth.ResolveOwner(r.Context(), r.FormValue("ownerId"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return upload{}, false
	}

	importContext, err := domain.ParseImportContext(r.FormValue("context"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return upload{}, false
	}

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to read file: %v", err), http.StatusBadRequest)
		return upload{}, false
	}

	return upload{
		ownerID:  ownerID,
		fileName: header.Filename,
		context:  importContext,
		mode:     strings.TrimSpace(r.FormValue("mode")),
		data:     data,
	}, true
}

func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	up, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	summary, err := h.service.Import(r.Context(), Request{
		OwnerID:  up.ownerID,
		FileName: up.fileName,
		Context:  up.context,
		Mode:     domain.ImportMode(up.mode),
		Data:     up.data,
	})
	if err != nil {
		writeError(w, err, summary)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleInspect(w http.ResponseWriter, r *http.Request) {
	up, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	inspection, err := h.service.Inspect(r.Context(), InspectRequest{
		OwnerID:  up.ownerID,
		FileName: up.fileName,
		Context:  up.context,
		Data:     up.data,
	})
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, inspection)
}

type commitBody struct {
	Mode    string `json:"mode"`
	OwnerID string `json:"ownerId"`
}

func (h *Handler) handleCommit(w http.ResponseWriter, r *http.Request) {
	var body commitBody
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&body); err != nil {
			http.Error(w, fmt.Sprintf("invalid JSON body: %v", err), http.StatusBadRequest)
			return
		}
	} else {
		body.Mode = r.FormValue("mode")
		body.OwnerID = r.FormValue("ownerId")
	}

	ownerID, err := auth.ResolveOwner(r.Context(), body.OwnerID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	summary, err := h.service.Commit(r.Context(), CommitRequest{
		Token:   r.PathValue("token"),
		OwnerID: ownerID,
		Mode:    domain.ImportMode(body.Mode),
	})
	if err != nil {
		writeError(w, err, summary)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleListLogs(w http.ResponseWriter, r *http.Request) {
	ownerID, err := auth.ResolveOwner(r.Context(), r.URL.Query().Get("ownerId"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	logs, err := h.service.Logs(r.Context(), ownerID, limit, offset)
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (h *Handler) handleGetLog(w http.ResponseWriter, r *http.Request) {
	ownerID, err := auth.ResolveOwner(r.Context(), r.URL.Query().Get("ownerId"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid log id: %v", err), http.StatusBadRequest)
		return
	}

	entry, err := h.service.Log(r.Context(), ownerID, id)
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return n, nil
}

type errorResponse struct {
	Error   string `json:"error"`
	Stage   Stage  `json:"stage,omitempty"`
	Message string `json:"message"`
	Summary any    `json:"summary,omitempty"`
}

func writeError(w http.ResponseWriter, err error, summary any) {
	status := http.StatusInternalServerError
	stage, staged := FailedStage(err)
	switch {
	case errors.Is(err, ErrOwnerRequired), errors.Is(err, ErrInvalidMode):
		status = http.StatusBadRequest
	case errors.Is(err, ErrUnknownToken), IsNotFound(err):
		status = http.StatusNotFound
	case staged && (stage == StageRead || stage == StageDetect):
		status = http.StatusUnprocessableEntity
	case staged && stage == StageStore:
		status = http.StatusBadGateway
	}

	resp := errorResponse{Error: err.Error(), Stage: stage, Message: FailureMessage(err)}
	if s, ok := summary.(Summary); ok && s.IngestionID != uuid.Nil {
		resp.Summary = s
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
