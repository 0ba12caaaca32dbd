package handler

import (
	"encoding/json"
	"net/http"

	"github.com/algobasket/hissabbook-api-system/internal/domain"
	"github.com/algobasket/hissabbook-api-system/pkg/response"
)

func (h *AuthHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(ContextUserID).(string)
	if !ok || userID == "" {
		response.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.userUC.GetProfile(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, user)
}

func (h *AuthHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(ContextUserID).(string)
	if !ok || userID == "" {
		response.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.FirstName == nil && req.LastName == nil && req.Phone == nil {
		response.Error(w, http.StatusBadRequest, "Nothing to update")
		return
	}

	upd := domain.ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	}
	if err := h.userUC.UpdateProfile(r.Context(), userID, upd); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.userUC.GetProfile(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, user)
}
