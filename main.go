package main

import (
	"log"
	"os"

	"guardrelay/internal/api"
	"guardrelay/internal/config"
	"guardrelay/internal/upstream"

	"github.com/gin-gonic/gin"
)

func main() {
	cfgPath := os.Getenv("GUARDRELAY_CONFIG")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	staticDir := cfg.BasicConfig.StaticDir
	if staticDir == "" {
		staticDir = "./public"
	}

	client := upstream.NewClient(cfg.Upstream)
	handlers := api.NewHandler(client, cfg.Generation, staticDir)

	router := gin.Default()
	handlers.RegisterRoutes(router)

	addr := cfg.BasicConfig.ServerAddress
	if addr == "" {
		addr = ":8080"
	}

	if err := router.Run(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
