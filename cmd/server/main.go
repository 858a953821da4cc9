package main

import (
	"log"
	"net/http"
	"time"

	"studyhub/internal/api"
	"studyhub/internal/config"
	"studyhub/internal/db"
	"studyhub/internal/services"
	"studyhub/internal/store"
)

func main() {
	cfg := config.Load()

	conn, err := db.Open(cfg.Database)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer conn.Close()

	sessionStore := store.NewSQLiteStore(conn)
	aiService := services.NewAIService(cfg.OpenAIKey, cfg.OpenAIModel, cfg.OpenAIEndpoint)
	sessionService := services.NewSessionService(sessionStore, aiService)

	server := api.NewServer(sessionService)

	log.Printf("listening on :%s", cfg.Port)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      server.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server failed: %v", err)
	}
}
