package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/tahmid/skillswap/internal/service"
)

// SkillHandler serves the skill taxonomy CRUD.
type SkillHandler struct {
	skills *service.SkillService
	logger *slog.Logger
}

func NewSkillHandler(skills *service.SkillService, logger *slog.Logger) *SkillHandler {
	return &SkillHandler{skills: skills, logger: logger}
}

// HandleList returns skills with pagination, ordered by name.
//
// HTTP: GET /api/skills?limit=20&offset=0
func (h *SkillHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	skills, err := h.skills.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":  len(skills),
		"skills": skills,
	})
}

// HandleGetByID returns a single skill.
//
// HTTP: GET /api/skills/{id}
func (h *SkillHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	skill, err := h.skills.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, skill)
}

// HandleCreate adds a skill to the taxonomy.
//
// HTTP: POST /api/skills
// Body: {"name": "Python"}
func (h *SkillHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	skill, err := h.skills.Create(r.Context(), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, skill)
}

// HandleUpdate renames a skill.
//
// HTTP: PUT /api/skills/{id}
// Body: {"name": "Python 3"}
func (h *SkillHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	skill, err := h.skills.Rename(r.Context(), r.PathValue("id"), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, skill)
}

// HandleDelete removes a skill from the taxonomy (and from every user's
// skill sets).
//
// HTTP: DELETE /api/skills/{id}
func (h *SkillHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.skills.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
