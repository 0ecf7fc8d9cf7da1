package main

import (
	"context"
	"strings"

	"github.com/cppla/blogfeed/config"
	"github.com/cppla/blogfeed/graph"
	"github.com/cppla/blogfeed/models"
	"github.com/cppla/blogfeed/routes"
	"github.com/cppla/blogfeed/utils"
)

func main() {
	cfg := config.Load()

	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer utils.Logger.Sync() //nolint:errcheck

	db := config.InitDatabase(models.All()...)

	rc := utils.GetRedis()
	cache := utils.NewResponseCache(rc)

	var hooks []func(context.Context) error
	var socialGraph graph.Graph = graph.NewGormGraph(db)
	if strings.EqualFold(cfg.GraphBackend, "neo4j") {
		driver, err := graph.ConnectNeo4j(context.Background(), cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
		if err != nil {
			utils.Sugar.Fatalf("neo4j graph backend: %v", err)
		}
		socialGraph = graph.NewNeo4jGraph(driver)
		hooks = append(hooks, driver.Close)
	}

	blobs := utils.NewBlobStore(cfg.UploadDir, int64(cfg.MaxUploadMB)<<20)

	r := routes.SetupRouter(routes.Deps{
		DB:    db,
		Graph: socialGraph,
		Cache: cache,
		Blobs: blobs,
	})

	hooks = append(hooks, func(context.Context) error { return config.CloseDatabase() })
	if rc != nil {
		hooks = append(hooks, func(context.Context) error { return rc.Close() })
	}
	if mc, ok := cache.(*utils.MemoryCache); ok {
		hooks = append(hooks, mc.Close)
	}

	utils.Sugar.Infof("starting server on port %s (graph=%s, cache=%T)", cfg.AppPort, cfg.GraphBackend, cache)
	if err := utils.GraceServer(":"+cfg.AppPort, r, hooks...); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
