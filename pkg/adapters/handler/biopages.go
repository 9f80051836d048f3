package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/caffeinepub/liinks/pkg/core/domain"
	"github.com/caffeinepub/liinks/pkg/ports"
)

type BioPageHandler struct {
	service ports.BioPageService
	prereqs ports.PrerequisiteService
	baseURL string
}

func NewBioPageHandler(service ports.BioPageService, prereqs ports.PrerequisiteService, baseURL string) *BioPageHandler {
	return &BioPageHandler{service: service, prereqs: prereqs, baseURL: baseURL}
}

// SaveBioPageRequest payload
type SaveBioPageRequest struct {
	TemplateID    string                `json:"template_id"`
	Title         string                `json:"title"`
	BioText       string                `json:"bio_text"`
	SocialHandles []domain.SocialHandle `json:"social_handles"`
	Links         []domain.Link         `json:"links"`
}

func (h *BioPageHandler) shareURL(id domain.ShareID) string {
	return h.baseURL + "/share/" + id.String()
}

// Gate reports the caller's publish decision. It always answers 200; the
// decision itself carries the status.
func (h *BioPageHandler) Gate(w http.ResponseWriter, r *http.Request) {
	decision, err := h.prereqs.Check(r.Context(), IdentityFrom(r.Context()))
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, decision)
}

// Save publishes the caller's page. The gate is evaluated on every attempt;
// a refusal is answered with its guidance instead of saving.
func (h *BioPageHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req SaveBioPageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(r.Context(), w, apiError{Code: "invalid_request", Message: err.Error(), Status: http.StatusBadRequest})
		return
	}

	res, err := h.service.Save(r.Context(), IdentityFrom(r.Context()), ports.SaveBioPageInput{
		TemplateID:    req.TemplateID,
		Title:         req.Title,
		BioText:       req.BioText,
		SocialHandles: req.SocialHandles,
		Links:         req.Links,
	})
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if !res.Decision.Allowed() {
		respondDecision(r.Context(), w, res.Decision)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"share_id":  res.ShareID,
		"share_url": h.shareURL(res.ShareID),
		"page":      res.Page,
	})
}

func (h *BioPageHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	pages, err := h.service.ListMine(r.Context(), IdentityFrom(r.Context()).UserID)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	type entry struct {
		domain.BioPage
		ShareID  domain.ShareID `json:"share_id"`
		ShareURL string         `json:"share_url"`
	}
	out := make([]entry, 0, len(pages))
	for _, p := range pages {
		id := p.ShareID()
		out = append(out, entry{BioPage: p, ShareID: id, ShareURL: h.shareURL(id)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": out})
}

// Shared returns a published page by its share id. No login is required.
func (h *BioPageHandler) Shared(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.GetShared(r.Context(), domain.ShareID(chi.URLParam(r, "shareID")))
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}
