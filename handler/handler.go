package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"

	"cloud-lab/internal/domain"
	"cloud-lab/internal/usecase"
)

const maxUploadMemory = 32 << 20

type FileUseCase interface {
	Upload(ctx context.Context, in usecase.UploadInput) (usecase.UploadOutput, error)
	Read(ctx context.Context, fileName string) (domain.File, error)
}

type MessageUseCase interface {
	Create(ctx context.Context, content string) (domain.Message, error)
	List(ctx context.Context) ([]domain.Message, error)
}

// Handler serves the file and message API.
type Handler struct {
	files    FileUseCase
	messages MessageUseCase
	logger   *slog.Logger
}

type statusResponse struct {
	Status string `json:"status"`
}

type uploadResponse struct {
	Message string `json:"message"`
}

type readResponse struct {
	FileName string `json:"file_name"`
	Content  string `json:"content"`
}

type createMessageRequest struct {
	Content *string `json:"content"`
}

type listMessagesResponse struct {
	Messages []domain.Message `json:"messages"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func NewHandler(files FileUseCase, messages MessageUseCase, logger *slog.Logger) (*Handler, error) {
	if files == nil {
		return nil, errors.New("handler: file use case must not be nil")
	}
	if messages == nil {
		return nil, errors.New("handler: message use case must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{files: files, messages: messages, logger: logger}, nil
}

// Routes returns the API routes wrapped in request logging.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("POST /upload/{$}", h.Upload)
	mux.HandleFunc("GET /read/{file_name}", h.Read)
	mux.HandleFunc("POST /message/{$}", h.CreateMessage)
	mux.HandleFunc("GET /messages/{$}", h.ListMessages)
	return WithRequestLogging(h.logger, mux)
}

// Health never touches a backend.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: "Expected a multipart/form-data body."})
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: "Field 'file' is required."})
		return
	}
	defer func() { _ = file.Close() }()

	out, err := h.files.Upload(r.Context(), usecase.UploadInput{
		FileName:    uploadedName(hdr),
		ContentType: hdr.Header.Get("Content-Type"),
		Body:        file,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{Message: out.Message})
}

func (h *Handler) Read(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("file_name")
	f, err := h.files.Read(r.Context(), name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, readResponse{FileName: f.Name, Content: string(f.Content)})
}

func (h *Handler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	var req createMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: "Request body must be a JSON object."})
		return
	}
	if req.Content == nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: "Field 'content' is required."})
		return
	}

	msg, err := h.messages.Create(r.Context(), *req.Content)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.messages.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listMessagesResponse{Messages: msgs})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForCode(usecase.CodeOf(err))
	detail := err.Error()
	var ue *usecase.Error
	if errors.As(err, &ue) {
		detail = ue.Detail
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"correlation_id", CorrelationID(r.Context()),
			"err", err,
		)
	}
	writeJSON(w, status, errorResponse{Detail: detail})
}

// uploadedName returns the file name exactly as the client sent it.
// multipart.FileHeader.Filename keeps only the base name.
func uploadedName(hdr *multipart.FileHeader) string {
	_, params, err := mime.ParseMediaType(hdr.Header.Get("Content-Disposition"))
	if err == nil && params["filename"] != "" {
		return params["filename"]
	}
	return hdr.Filename
}

func statusForCode(code usecase.ErrorCode) int {
	switch code {
	case usecase.ErrorInvalidInput:
		return http.StatusUnprocessableEntity
	case usecase.ErrorUnsupportedMedia:
		return http.StatusBadRequest
	case usecase.ErrorNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
