package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/caffeinepub/liinks/pkg/core/domain"
	"github.com/caffeinepub/liinks/pkg/ports"
)

const maxThumbnailBytes = 5 << 20

type TemplateHandler struct {
	service ports.TemplateService
}

func NewTemplateHandler(service ports.TemplateService) *TemplateHandler {
	return &TemplateHandler{service: service}
}

// templateResponse is a catalog entry without its raw editable content.
type templateResponse struct {
	ID           string                `json:"id"`
	Name         string                `json:"name"`
	Category     string                `json:"category"`
	Description  string                `json:"description"`
	Status       domain.TemplateStatus `json:"status"`
	ThumbnailURL string                `json:"thumbnail_url"`
	CreatorID    string                `json:"creator_id,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
}

func toTemplateResponse(t domain.Template) templateResponse {
	return templateResponse{
		ID:           t.ID,
		Name:         t.Name,
		Category:     t.Category,
		Description:  t.Description,
		Status:       t.Status,
		ThumbnailURL: t.ThumbnailURL,
		CreatorID:    t.CreatorID,
		CreatedAt:    t.CreatedAt,
	}
}

// List returns the catalog, optionally narrowed to one category. The category
// is matched exactly as given. It never fails: the bundled catalog stands in when the store is unavailable.
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	var templates []domain.Template
	if category := r.URL.Query().Get("category"); category != "" {
		templates = h.service.GetByCategory(r.Context(), category)
	} else {
		templates = h.service.GetAll(r.Context())
	}

	out := make([]templateResponse, 0, len(templates))
	for _, t := range templates {
		out = append(out, toTemplateResponse(t))
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": out})
}

func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	tpl, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTemplateResponse(*tpl))
}

// Content returns the editor state decoded from the template.
func (h *TemplateHandler) Content(w http.ResponseWriter, r *http.Request) {
	tpl, content, err := h.service.EditorContent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"template":        toTemplateResponse(*tpl),
		"editableContent": content,
	})
}

func (h *TemplateHandler) Categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"data": domain.Categories})
}

// UploadTemplateRequest payload. EditableContent uses the editor's field names.
type UploadTemplateRequest struct {
	Name            string                 `json:"name"`
	Category        string                 `json:"category"`
	Description     string                 `json:"description"`
	ThumbnailURL    string                 `json:"thumbnail_url"`
	EditableContent domain.EditableContent `json:"editable_content"`
}

// Upload accepts JSON, or multipart with a "thumbnail" file part and the
// other fields as form values ("editable_content" as a JSON string).
func (h *TemplateHandler) Upload(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFrom(r.Context())

	input, cleanup, err := parseUpload(w, r)
	if err != nil {
		writeError(r.Context(), w, apiError{Code: "invalid_request", Message: err.Error(), Status: http.StatusBadRequest})
		return
	}
	defer cleanup()

	id, err := h.service.Upload(r.Context(), identity.UserID, input)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func parseUpload(w http.ResponseWriter, r *http.Request) (ports.UploadTemplateInput, func(), error) {
	noop := func() {}
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		var req UploadTemplateRequest
		if err := decodeJSON(w, r, &req); err != nil {
			return ports.UploadTemplateInput{}, noop, err
		}
		return ports.UploadTemplateInput{
			Name:         req.Name,
			Category:     req.Category,
			Description:  req.Description,
			ThumbnailURL: req.ThumbnailURL,
			Content:      req.EditableContent,
		}, noop, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxThumbnailBytes+1<<20)
	if err := r.ParseMultipartForm(maxThumbnailBytes); err != nil {
		return ports.UploadTemplateInput{}, noop, err
	}
	input := ports.UploadTemplateInput{
		Name:         r.FormValue("name"),
		Category:     r.FormValue("category"),
		Description:  r.FormValue("description"),
		ThumbnailURL: r.FormValue("thumbnail_url"),
	}
	if raw := r.FormValue("editable_content"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &input.Content); err != nil {
			return ports.UploadTemplateInput{}, noop, err
		}
	}
	file, header, err := r.FormFile("thumbnail")
	if err == http.ErrMissingFile {
		return input, noop, nil
	}
	if err != nil {
		return ports.UploadTemplateInput{}, noop, err
	}
	input.Thumbnail = file
	input.ThumbnailName = header.Filename
	return input, func() { _ = file.Close() }, nil
}
