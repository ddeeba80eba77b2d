package httpapi

import (
	"fmt"
	"net/http"

	tutorAuth "github.com/MrEthical07/tutorAuth"
	"github.com/MrEthical07/tutorAuth/middleware"
	"github.com/MrEthical07/tutorAuth/principal"
	"github.com/go-chi/chi/v5"
)

type blockBody struct {
	Blocked *bool `json:"blocked"`
}

type adminHandler struct {
	engine Engine
}

func (h *adminHandler) routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/login", loginHandler(h.engine, tutorAuth.RoleAdmin, "Welcome back admin"))
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin(h.engine))
		r.Get("/me", me)
		r.Patch("/{role}/{publicId}/block", h.setBlocked)
	})
	return r
}

// setBlocked toggles the block flag of a user or tutor.
func (h *adminHandler) setBlocked(w http.ResponseWriter, r *http.Request) {
	role, err := principal.ParseRole(chi.URLParam(r, "role"))
	if err != nil || role == tutorAuth.RoleAdmin {
		writeError(w, tutorAuth.RoleAdmin, tutorAuth.ErrUnsupported)
		return
	}

	var body blockBody
	if err := decode(r, &body); err != nil {
		writeError(w, role, err)
		return
	}
	if body.Blocked == nil {
		writeError(w, role, &tutorAuth.ValidationError{Field: "blocked", Message: "All fields are required"})
		return
	}

	p, err := h.engine.SetBlocked(r.Context(), role, chi.URLParam(r, "publicId"), *body.Blocked)
	if err != nil {
		writeError(w, role, err)
		return
	}

	action := "unblocked"
	if p.IsBlocked {
		action = "blocked"
	}
	view := principalView(p)
	view["isBlocked"] = p.IsBlocked
	writeOK(w, fmt.Sprintf("%s %s successfully", role, action), envelope{role.Slug(): view})
}
