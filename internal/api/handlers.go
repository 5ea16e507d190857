// internal/api/handlers.go
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	appErrors "github.com/corphon/novelgraph/internal/errors"
	"github.com/corphon/novelgraph/internal/graphstore"
	"github.com/corphon/novelgraph/internal/ingest"
	"github.com/corphon/novelgraph/internal/models"
	"github.com/corphon/novelgraph/internal/pipeline"
	"github.com/corphon/novelgraph/internal/utils"
)

// analyzeRequest accepts either pre-split chapters (the §6 input contract)
// or a single raw text field, which is run through ingest.SplitChapters.
type analyzeRequest struct {
	ID       string           `json:"id"`
	Title    string           `json:"title"`
	Author   string           `json:"author"`
	Chapters []chapterRequest `json:"chapters"`
	Text     string           `json:"text"`
}

type chapterRequest struct {
	Index int    `json:"index" binding:"required"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Handler groups every HTTP/WebSocket endpoint this module exposes.
type Handler struct {
	orchestrator *pipeline.Orchestrator
	progress     *pipeline.ProgressRegistry
	store        *graphstore.MemoryStore // bundle-lookup convenience; nil when a non-memory store is used
	Response     *ResponseHelper
}

// NewHandler wires a Handler against the given orchestrator, progress
// registry and (optionally) an in-memory store usable for GET lookups.
func NewHandler(orchestrator *pipeline.Orchestrator, progress *pipeline.ProgressRegistry, store *graphstore.MemoryStore) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		progress:     progress,
		store:        store,
		Response:     NewResponseHelper(),
	}
}

// Analyze handles POST /api/novels/:id/analyze. It parses the request
// body into a Novel, starts the pipeline in the background and returns a
// task ID immediately; progress streams over /api/tasks/:id/progress.
func (h *Handler) Analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "malformed request body: "+err.Error())
		return
	}
	req.ID = c.Param("id")

	novel, err := buildNovel(req)
	if err != nil {
		if appErr, ok := err.(*appErrors.AppError); ok {
			h.Response.AppError(c, appErr)
			return
		}
		h.Response.BadRequest(c, err.Error())
		return
	}

	taskID := novel.ID
	tracker := h.progress.CreateTracker(taskID)

	go func() {
		ctx := context.Background()
		_, err := h.orchestrator.Analyze(ctx, novel, tracker)
		if err != nil {
			utils.GetLogger().Error("analysis failed", map[string]interface{}{"novel_id": novel.ID, "error": err.Error()})
			tracker.Fail()
			return
		}
		tracker.Complete()
	}()

	h.Response.Accepted(c, gin.H{"task_id": taskID}, "analysis started")
}

func buildNovel(req analyzeRequest) (*models.Novel, error) {
	if len(req.Chapters) > 0 {
		novel := &models.Novel{ID: req.ID, Title: req.Title, Author: req.Author}
		for _, ch := range req.Chapters {
			novel.Chapters = append(novel.Chapters, models.Chapter{
				Index: ch.Index,
				Title: ch.Title,
				Text:  ch.Text,
			})
		}
		return novel, nil
	}
	if req.Text != "" {
		return ingest.SplitChapters(req.ID, req.Title, req.Author, req.Text)
	}
	return nil, appErrors.NewInvalidInput("request must include chapters or text", nil)
}

// GetBundle handles GET /api/novels/:id/bundle, returning the most
// recently persisted bundle for that novel from the in-memory store. A
// deployment backed by Neo4j would instead query the graph directly; this
// endpoint is a convenience for the default in-process store.
func (h *Handler) GetBundle(c *gin.Context) {
	novelID := c.Param("id")
	if h.store == nil {
		h.Response.NotFound(c, "no in-memory bundle store configured")
		return
	}
	bundle, ok := h.store.Get(novelID)
	if !ok {
		h.Response.NotFound(c, "no analysis bundle found for novel "+novelID)
		return
	}
	h.Response.Success(c, bundle)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// TaskProgress handles GET /api/tasks/:id/progress, upgrading to a
// WebSocket and streaming ProgressUpdate frames until the tracker
// completes, fails, or the client disconnects.
func (h *Handler) TaskProgress(c *gin.Context) {
	taskID := c.Param("id")
	tracker, ok := h.progress.GetTracker(taskID)
	if !ok {
		h.Response.NotFound(c, "no task found for id "+taskID)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.GetLogger().Warn("progress websocket upgrade failed", map[string]interface{}{"task_id": taskID, "error": err.Error()})
		return
	}
	defer conn.Close()

	sub := tracker.Subscribe()
	defer tracker.Unsubscribe(sub)

	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case update, open := <-sub:
			if !open {
				return
			}
			if err := conn.WriteJSON(update); err != nil {
				return
			}
			if update.Status == "completed" || update.Status == "failed" {
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.Request.Context().Done():
			return
		}
	}
}
