package handler

import (
	"net/http"

	"github.com/algobasket/hissabbook-api-system/internal/ws"
	"github.com/algobasket/hissabbook-api-system/pkg/response"
)

type WSHandler struct {
	hub *ws.Hub
}

func NewWSHandler(hub *ws.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

// HandleWS upgrades an authenticated connection and subscribes it to the
// caller's own auth events.
func (h *WSHandler) HandleWS(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(ContextUserID).(string)
	if !ok || userID == "" {
		response.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	ws.ServeWS(h.hub, w, r, userID)
}
