package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"aura/config"
	"aura/internal/database"
	"aura/internal/server"
)

func main() {
	config.LoadConfig()

	if err := database.InitDB(config.AppConfig); err != nil {
		log.Fatalf("FATAL: Failed to initialize database: %v", err)
	}
	defer func() {
		if err := database.DB.Close(); err != nil {
			log.Printf("ERROR: Failed to close database connection: %v", err)
		} else {
			log.Println("Database connection closed successfully.")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.StartServer(ctx, config.AppConfig); err != nil {
		log.Printf("ERROR: Server stopped: %v", err)
	}
}
