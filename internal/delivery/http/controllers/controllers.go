// Package controllers holds the HTTP handlers of the REST API.
package controllers

import (
	"net/http"

	h "campusevents/internal/delivery/http/helpers"
	"campusevents/internal/delivery/http/middleware"
	"campusevents/internal/domain"
)

// caller returns the authenticated principal or writes 401.
func caller(w http.ResponseWriter, r *http.Request) (*domain.Principal, bool) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return nil, false
	}
	return p, true
}

// pathParam returns the named path value or writes 400 when it is empty.
func pathParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	v := r.PathValue(name)
	if v == "" {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "missing "+name)
		return "", false
	}
	return v, true
}

// NoteRequest is the optional body of approve and reject actions.
type NoteRequest struct {
	Note string `json:"note"`
}

// decodeNote reads an optional NoteRequest; an empty body is allowed.
func decodeNote(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req NoteRequest
	if r.ContentLength == 0 {
		return "", true
	}
	if !h.DecodeAndValidate(w, r, &req) {
		return "", false
	}
	return req.Note, true
}
