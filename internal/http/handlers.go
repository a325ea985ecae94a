package http

import (
	"net/http"
	"strings"

	"fincontrol/internal/core"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := s.users.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	token, user, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		Token: token,
		User:  toUserResponse(user),
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.GetUser(r.Context(), userIDFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// handleListCategories lists the catalog, optionally narrowed with ?kind=.
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	kindParam := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("kind")))

	kind, ok, err := parseKindParam(kindParam)
	if err != nil {
		writeError(w, r, err)
		return
	}

	entries := s.catalog.All()
	if ok {
		if kind == core.KindRevenue {
			entries = s.catalog.RevenueCategories()
		} else {
			entries = s.catalog.ExpenseCategories()
		}
	}

	out := make([]categoryResponse, 0, len(entries))
	for _, info := range entries {
		out = append(out, toCategoryResponse(info))
	}
	writeJSON(w, http.StatusOK, out)
}
