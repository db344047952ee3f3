// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/placefeed/internal/auth"
	"github.com/tomtom215/placefeed/internal/feederr"
)

// maxActivityIDLength bounds path IDs before they reach the store.
const maxActivityIDLength = 128

func activityID(r *http.Request) (string, error) {
	id := chi.URLParam(r, "id")
	if id == "" || len(id) > maxActivityIDLength {
		return "", feederr.InvalidArgument("invalid activity id")
	}
	return id, nil
}

// LikeActivity likes the activity. Liking twice succeeds.
func (h *Handler) LikeActivity(w http.ResponseWriter, r *http.Request) {
	h.toggleLike(w, r, true)
}

// UnlikeActivity removes the like. Unliking something not liked succeeds.
func (h *Handler) UnlikeActivity(w http.ResponseWriter, r *http.Request) {
	h.toggleLike(w, r, false)
}

func (h *Handler) toggleLike(w http.ResponseWriter, r *http.Request, like bool) {
	id, err := activityID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	viewerID, _ := auth.ViewerID(r.Context())

	svc := h.deps.Interactions
	op := svc.Unlike
	if like {
		op = svc.Like
	}
	res, err := op(r.Context(), viewerID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, res)
}

// MarkViewed queues a viewed mark and answers 202 regardless of whether the
// mark is eventually persisted.
func (h *Handler) MarkViewed(w http.ResponseWriter, r *http.Request) {
	id, err := activityID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	viewerID, _ := auth.ViewerID(r.Context())

	h.deps.Interactions.MarkViewed(viewerID, id)
	respondData(w, r, http.StatusAccepted, nil)
}
