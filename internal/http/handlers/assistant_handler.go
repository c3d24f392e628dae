// README: Assistant handlers for turns and session inspection.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mesa/internal/modules/dialog"
)

type AssistantHandler struct {
	dialog *dialog.Service
}

func NewAssistantHandler(svc *dialog.Service) *AssistantHandler {
	return &AssistantHandler{dialog: svc}
}

type turnReq struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// Turn runs one conversation turn. An empty session_id starts a new
// conversation; the response carries the id to use on the next turn.
func (h *AssistantHandler) Turn(c *gin.Context) {
	var req turnReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Message == "" {
		writeError(c, http.StatusBadRequest, "missing message")
		return
	}
	res, err := h.dialog.Turn(c.Request.Context(), req.SessionID, req.Message)
	if err != nil {
		writeDialogError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, res)
}

func (h *AssistantHandler) GetSession(c *gin.Context) {
	id := c.Param("id")
	snapshot, err := h.dialog.SessionSnapshot(id)
	if err != nil {
		writeDialogError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", snapshot)
}

func (h *AssistantHandler) EndSession(c *gin.Context) {
	id := c.Param("id")
	if err := h.dialog.EndSession(c.Request.Context(), id); err != nil {
		writeDialogError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"session_id": id, "status": "ended"})
}
