package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"

	"prompt_maker_server/internal/ai"
	"prompt_maker_server/internal/answers"
	"prompt_maker_server/internal/catalog"
	"prompt_maker_server/internal/logger"
	"prompt_maker_server/internal/session"
	"prompt_maker_server/internal/types"
)

// DefaultToolID is activated for sessions created without a tool.
const DefaultToolID = "architect"

// Refiner is the refinement capability the handlers need.
type Refiner interface {
	Refine(ctx context.Context, artifact string) (string, error)
}

// APIHandler holds dependencies for API endpoints.
type APIHandler struct {
	catalog  *catalog.Catalog
	sessions *session.Store
	refiner  Refiner
	log      *logger.Logger
}

// NewAPIHandler initializes a new API handler with its dependencies.
func NewAPIHandler(c *catalog.Catalog, sessions *session.Store, refiner Refiner, log *logger.Logger) *APIHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &APIHandler{
		catalog:  c,
		sessions: sessions,
		refiner:  refiner,
		log:      log,
	}
}

// --- Structs for API Requests/Responses ---

type RenderRequest struct {
	ToolID  string            `json:"toolId" binding:"required"`
	Answers map[string]string `json:"answers"`
}

type ArtifactResponse struct {
	Artifact string `json:"artifact"`
}

type RefineRequest struct {
	Artifact string `json:"artifact" binding:"required"`
}

type CreateSessionRequest struct {
	ToolID string `json:"toolId"`
}

type SelectToolRequest struct {
	ToolID string `json:"toolId" binding:"required"`
}

type SetAnswerRequest struct {
	Value string `json:"value"`
}

type SetAnswersRequest struct {
	Values map[string]string `json:"values" binding:"required"`
}

// RefineFailureResponse tells the front end to show a transient notice; the
// session it carries still holds the unrefined prompt.
type RefineFailureResponse struct {
	Error     string             `json:"error"`
	Notice    string             `json:"notice"`
	Transient bool               `json:"transient"`
	Session   *types.SessionView `json:"session,omitempty"`
}

// --- Catalog ---

// GET /tools
func (h *APIHandler) ListTools(c *gin.Context) {
	tools := h.catalog.List()
	views := make([]types.ToolView, len(tools))
	for i, t := range tools {
		views[i] = types.NewToolView(t)
	}
	c.JSON(http.StatusOK, views)
}

// GET /tools/:id
func (h *APIHandler) GetTool(c *gin.Context) {
	tool, ok := h.catalog.Find(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Tool not found"})
		return
	}
	c.JSON(http.StatusOK, types.NewToolView(tool))
}

// GET /faq
func (h *APIHandler) GetFAQ(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.FAQ())
}

// --- Stateless engine ---

// POST /render
func (h *APIHandler) RenderPrompt(c *gin.Context) {
	var req RenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	tool, ok := h.catalog.Find(req.ToolID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Tool not found"})
		return
	}
	c.JSON(http.StatusOK, ArtifactResponse{Artifact: catalog.Render(tool, req.Answers)})
}

// POST /refine
func (h *APIHandler) RefinePrompt(c *gin.Context) {
	var req RefineRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Artifact) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A non-empty artifact is required"})
		return
	}

	refined, err := h.refiner.Refine(context.WithoutCancel(c.Request.Context()), req.Artifact)
	if err != nil {
		h.respondRefineFailure(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, ArtifactResponse{Artifact: refined})
}

// --- Sessions ---

// POST /sessions
func (h *APIHandler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}
	}
	toolID := req.ToolID
	if toolID == "" {
		toolID = DefaultToolID
	}

	s, err := h.sessions.Create(toolID)
	if err != nil {
		// The session exists without an active tool; the client can pick one.
		h.log.Info("session created without active tool", "session", s.ID(), "tool", toolID)
	}
	c.JSON(http.StatusCreated, h.view(s))
}

// GET /sessions/:id
func (h *APIHandler) GetSession(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.view(s))
}

// DELETE /sessions/:id
func (h *APIHandler) DeleteSession(c *gin.Context) {
	if !h.sessions.Delete(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// PUT /sessions/:id/tool
func (h *APIHandler) SelectTool(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req SelectToolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if err := s.Activate(req.ToolID); err != nil {
		h.respondError(c, s, err)
		return
	}
	c.JSON(http.StatusOK, h.view(s))
}

// PUT /sessions/:id/answers/:fieldId
func (h *APIHandler) SetAnswer(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req SetAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if err := s.SetValue(c.Param("fieldId"), req.Value); err != nil {
		h.respondError(c, s, err)
		return
	}
	c.JSON(http.StatusOK, h.view(s))
}

// PATCH /sessions/:id/answers
func (h *APIHandler) SetAnswers(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req SetAnswersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if err := s.SetValues(req.Values); err != nil {
		h.respondError(c, s, err)
		return
	}
	c.JSON(http.StatusOK, h.view(s))
}

// POST /sessions/:id/generate
func (h *APIHandler) GeneratePrompt(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if _, err := s.Generate(); err != nil {
		h.respondError(c, s, err)
		return
	}
	h.log.Debug("prompt generated", "session", s.ID())
	c.JSON(http.StatusOK, h.view(s))
}

// POST /sessions/:id/refine
func (h *APIHandler) RefineSession(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	// Once issued a refinement runs to completion even if the client goes away.
	_, err := s.Refine(context.WithoutCancel(c.Request.Context()), h.refiner)
	if err != nil {
		var refErr *ai.RefinementError
		if errors.As(err, &refErr) {
			h.respondRefineFailure(c, err, s)
			return
		}
		h.respondError(c, s, err)
		return
	}
	c.JSON(http.StatusOK, h.view(s))
}

// DELETE /sessions/:id/artifact
func (h *APIHandler) DismissArtifact(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.Dismiss(); err != nil {
		h.respondError(c, s, err)
		return
	}
	c.JSON(http.StatusOK, h.view(s))
}

// --- helpers ---

func (h *APIHandler) session(c *gin.Context) (*session.Session, bool) {
	s, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return nil, false
	}
	return s, true
}

func (h *APIHandler) view(s *session.Session) types.SessionView {
	return types.NewSessionView(s.Snapshot())
}

// respondError maps engine errors to HTTP statuses. Every body carries the
// session view so the client can resync.
func (h *APIHandler) respondError(c *gin.Context, s *session.Session, err error) {
	view := h.view(s)
	switch {
	case errors.Is(err, catalog.ErrToolNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Tool not found", "session": view})
	case errors.Is(err, answers.ErrFieldNotDeclared):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Field is not part of the active tool", "session": view})
	case errors.Is(err, answers.ErrNoActiveTool):
		c.JSON(http.StatusConflict, gin.H{"error": "No active tool", "session": view})
	case errors.Is(err, session.ErrIncomplete):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Please answer every question", "missing": view.Missing, "session": view})
	case errors.Is(err, session.ErrNoArtifact):
		c.JSON(http.StatusConflict, gin.H{"error": "Nothing to refine yet", "session": view})
	case errors.Is(err, session.ErrRefineInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": "Refinement already in progress", "session": view})
	default:
		h.log.Error("unexpected session error", "session", s.ID(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error", "session": view})
	}
}

func (h *APIHandler) respondRefineFailure(c *gin.Context, err error, s *session.Session) {
	resp := RefineFailureResponse{
		Error:  "Refinement failed",
		Notice: "We couldn't refine your prompt. Your original prompt is unchanged.",
	}
	status := http.StatusBadGateway

	var refErr *ai.RefinementError
	if errors.As(err, &refErr) && refErr.Transient {
		resp.Transient = true
		resp.Notice = "The refinement service is busy. Your original prompt is unchanged; try again shortly."
		status = http.StatusServiceUnavailable
	}
	if s != nil {
		view := h.view(s)
		resp.Session = &view
		h.log.Warn("session refinement failed", "session", s.ID(), "transient", resp.Transient, "error", err)
	}
	c.JSON(status, resp)
}
