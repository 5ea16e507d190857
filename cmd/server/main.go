// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/corphon/novelgraph/internal/api"
	"github.com/corphon/novelgraph/internal/config"
	"github.com/corphon/novelgraph/internal/di"
	"github.com/corphon/novelgraph/internal/graphstore"
	"github.com/corphon/novelgraph/internal/lexicon"
	"github.com/corphon/novelgraph/internal/pipeline"
	"github.com/corphon/novelgraph/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	createDirectories(cfg)

	if err := utils.InitLogger(cfg.LogDir + "/novelgraph.log"); err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	log := utils.GetLogger()
	log.Info("configuration loaded", map[string]interface{}{"port": cfg.Port, "data_dir": cfg.DataDir})

	if err := config.InitConfig(cfg.DataDir); err != nil {
		log.Fatal("failed to initialize threshold config", map[string]interface{}{"error": err.Error()})
	}

	store, closeStore := newStore(cfg)
	defer closeStore()

	lex := lexicon.Default()
	orchestrator := pipeline.New(lex, config.Current().Thresholds, store)
	progress := pipeline.NewProgressRegistry()
	progress.StartAutoCleanup()
	defer progress.Stop()

	container := di.GetContainer()
	container.Register("orchestrator", orchestrator)
	container.Register("progress", progress)
	container.Register("store", store)
	log.Info("services registered", map[string]interface{}{"count": len(container.GetNames())})

	router, err := api.SetupRouterFromContainer(container)
	if err != nil {
		log.Fatal("failed to build router from container", map[string]interface{}{"error": err.Error()})
	}

	runServer(router, cfg.Port)
}

// newStore builds the graph-store client. If Neo4jURI is unset, an
// in-memory store is used instead — a deliberate fallback for local
// development and the test harness, not a production deployment mode.
func newStore(cfg *config.Config) (graphstore.Store, func()) {
	log := utils.GetLogger()

	if cfg.Neo4jURI == "" {
		log.Info("no NEO4J_URI configured, using in-memory graph store", nil)
		return graphstore.NewMemoryStore(), func() {}
	}

	driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURI, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""))
	if err != nil {
		log.Fatal("failed to create neo4j driver", map[string]interface{}{"error": err.Error()})
	}

	store := graphstore.NewNeo4jStore(driver, cfg.Neo4jDatabase)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatal("failed to ensure graph schema", map[string]interface{}{"error": err.Error()})
	}

	log.Info("connected to neo4j graph store", map[string]interface{}{"uri": cfg.Neo4jURI})
	return store, func() {
		_ = driver.Close(context.Background())
	}
}

func createDirectories(cfg *config.Config) {
	dirs := []string{cfg.DataDir, cfg.LexiconDir, cfg.LogDir}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			panic("failed to create directory " + dir + ": " + err.Error())
		}
	}
}

func runServer(router http.Handler, port string) {
	log := utils.GetLogger()

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed to start", map[string]interface{}{"error": err.Error()})
		}
	}()
	log.Info("server listening", map[string]interface{}{"port": port})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("server forced to shut down", map[string]interface{}{"error": err.Error()})
	}
	log.Info("server shut down cleanly", nil)
}
