package main

import (
	"log"

	"radar-coach-be/internal/bootstrap"
	"radar-coach-be/internal/config"
	"radar-coach-be/internal/server"

	"github.com/fatih/color"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(cfg)
	if err != nil {
		log.Fatalf("Unable to bootstrap application: %v", err)
	}
	defer container.Logger.Sync()

	color.Cyan("Tech Radar blip submission coach")
	color.Green("Loaded %d historical radar blips", container.HistoryCount)
	if cfg.Ai.LLMProvider == "mock" {
		color.Yellow("DEV MODE: using the mock model backend, no API key needed")
	}

	// 3. Initialize and Run Server
	srv := server.New(cfg, container)
	log.Fatal(srv.Run())
}
