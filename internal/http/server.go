// README: API gateway; registers HTTP routes and delegates to module services.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mesa/internal/http/handlers"
	"mesa/internal/http/middleware"
	"mesa/internal/modules/dialog"
	"mesa/internal/modules/knowledge"
)

type ServerDeps struct {
	Dialog    *dialog.Service
	Knowledge *knowledge.Service
	APIKey    string
	Log       *zap.Logger
}

type Server struct {
	dialog    *dialog.Service
	knowledge *knowledge.Service
	apiKey    string
	log       *zap.Logger
}

func NewServer(deps ServerDeps) *Server {
	return &Server{
		dialog:    deps.Dialog,
		knowledge: deps.Knowledge,
		apiKey:    deps.APIKey,
		log:       deps.Log,
	}
}

func (s *Server) Routes() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Recovery(s.log), middleware.Logging(s.log))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	api := r.Group("/api", middleware.Auth(s.apiKey))

	assistant := handlers.NewAssistantHandler(s.dialog)
	api.POST("/assistant/turn", assistant.Turn)
	api.GET("/assistant/sessions/:id", assistant.GetSession)
	api.DELETE("/assistant/sessions/:id", assistant.EndSession)

	kb := handlers.NewKnowledgeHandler(s.knowledge)
	api.POST("/knowledge/chunks", kb.Ingest)

	return r
}
