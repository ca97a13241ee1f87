package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/tahmid/skillswap/internal/auth"
	"github.com/tahmid/skillswap/internal/repository"
	"github.com/tahmid/skillswap/internal/service"
)

// UserHandler serves profiles, discovery, and skill-set mutations.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// HandleMe returns the authenticated user's own profile.
//
// HTTP: GET /api/users/me
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleGetByID returns any user's public profile.
//
// HTTP: GET /api/users/{id}
func (h *UserHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleList returns users for discovery.
//
// HTTP: GET /api/users?limit=20&offset=0&skill=<id-or-name>
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	users, err := h.users.List(r.Context(), limit, offset, r.URL.Query().Get("skill"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count": len(users),
		"users": users,
	})
}

// HandleUpdateMe updates the authenticated user's profile. Omitted fields
// are left untouched; an empty skill list clears that set.
//
// HTTP: PUT /api/users/me
// Body: {"name"?, "teach"?: [..], "learn"?: [..]}
func (h *UserHandler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	var req struct {
		Name  *string  `json:"name"`
		Teach []string `json:"teach"`
		Learn []string `json:"learn"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), userID, service.ProfileUpdate{
		Name:  req.Name,
		Teach: req.Teach,
		Learn: req.Learn,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleAddSkill adds a skill (by name or ID) to one of the authenticated
// user's sets.
//
// HTTP: POST /api/users/me/skills/{kind}   kind ∈ {teach, learn}
//
//	POST /api/users/{id}/skills/{kind}   (id must be the acting user)
//
// Body: {"skillId": "<name or id>"}
func (h *UserHandler) HandleAddSkill(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.skillSetOwner(w, r)
	if !ok {
		return
	}

	kind, ok := skillKindFromPath(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "unknown skill set"})
		return
	}

	var req struct {
		SkillID string `json:"skillId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	user, err := h.users.AddSkill(r.Context(), userID, req.SkillID, kind)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleRemoveSkill removes a skill from one of the authenticated user's sets.
//
// HTTP: DELETE /api/users/me/skills/{kind}/{skillId}
//
//	DELETE /api/users/{id}/skills/{kind}/{skillId}   (id must be the acting user)
func (h *UserHandler) HandleRemoveSkill(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.skillSetOwner(w, r)
	if !ok {
		return
	}

	kind, ok := skillKindFromPath(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "unknown skill set"})
		return
	}

	user, err := h.users.RemoveSkill(r.Context(), userID, r.PathValue("skillId"), kind)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// skillSetOwner resolves the user whose skill set a request targets. Skill
// mutations are mounted both as /me/... and as /{id}/...; the id form only
// ever addresses the acting user's own sets, so a foreign id is Forbidden.
// On failure the response has already been written.
func (h *UserHandler) skillSetOwner(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return "", false
	}
	if id := r.PathValue("id"); id != "" && id != userID {
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "forbidden", Message: "cannot modify another user's skills"})
		return "", false
	}
	return userID, true
}

func skillKindFromPath(r *http.Request) (repository.SkillKind, bool) {
	switch r.PathValue("kind") {
	case "teach":
		return repository.SkillKindTeach, true
	case "learn":
		return repository.SkillKindLearn, true
	}
	return "", false
}
