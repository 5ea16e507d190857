// internal/api/router.go
package api

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/corphon/novelgraph/internal/di"
	"github.com/corphon/novelgraph/internal/graphstore"
	"github.com/corphon/novelgraph/internal/pipeline"
)

// SetupRouterFromContainer resolves the orchestrator and progress registry
// c was registered with (see cmd/server/main.go) and builds the router
// against them. The bundle-lookup store is optional: it is only present
// when the deployment is backed by graphstore.MemoryStore rather than
// Neo4j, so a missing or differently-typed "store" entry is not an error.
func SetupRouterFromContainer(c *di.Container) (*gin.Engine, error) {
	orchestrator, ok := c.Get("orchestrator").(*pipeline.Orchestrator)
	if !ok {
		return nil, fmt.Errorf("di: no *pipeline.Orchestrator registered as %q", "orchestrator")
	}
	progress, ok := c.Get("progress").(*pipeline.ProgressRegistry)
	if !ok {
		return nil, fmt.Errorf("di: no *pipeline.ProgressRegistry registered as %q", "progress")
	}
	store, _ := c.Get("store").(*graphstore.MemoryStore)

	return SetupRouter(orchestrator, progress, store), nil
}

// SetupRouter builds the HTTP surface: one route to start an analysis,
// one WebSocket to watch its progress, one to fetch the finished bundle.
func SetupRouter(orchestrator *pipeline.Orchestrator, progress *pipeline.ProgressRegistry, store *graphstore.MemoryStore) *gin.Engine {
	router := gin.New()
	router.Use(Logger(), gin.Recovery(), ErrorHandler())

	handler := NewHandler(orchestrator, progress, store)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		api.POST("/novels/:id/analyze", handler.Analyze)
		api.GET("/novels/:id/bundle", handler.GetBundle)
		api.GET("/tasks/:id/progress", handler.TaskProgress)
	}

	return router
}
