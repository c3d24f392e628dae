// README: Knowledge corpus ingestion handler.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mesa/internal/modules/knowledge"
)

type KnowledgeHandler struct {
	knowledge *knowledge.Service
}

func NewKnowledgeHandler(svc *knowledge.Service) *KnowledgeHandler {
	return &KnowledgeHandler{knowledge: svc}
}

type ingestReq struct {
	Chunks []struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	} `json:"chunks"`
}

func (h *KnowledgeHandler) Ingest(c *gin.Context) {
	var req ingestReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if len(req.Chunks) == 0 {
		writeError(c, http.StatusBadRequest, "no chunks")
		return
	}
	titles := make([]string, len(req.Chunks))
	contents := make([]string, len(req.Chunks))
	for i, ch := range req.Chunks {
		if ch.Content == "" {
			writeError(c, http.StatusBadRequest, "chunk content is required")
			return
		}
		titles[i] = ch.Title
		contents[i] = ch.Content
	}
	if err := h.knowledge.Ingest(c.Request.Context(), titles, contents); err != nil {
		writeError(c, http.StatusInternalServerError, "ingestion failed")
		return
	}
	writeJSON(c, http.StatusCreated, map[string]any{"ingested": len(req.Chunks)})
}
