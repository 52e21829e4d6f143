package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/VOID-NULLED/hackathon-OCR/internal/app"
)

func main() {
	// Missing .env is fine; configuration falls back to the process env.
	_ = godotenv.Load()

	application, err := app.NewApp()
	if err != nil {
		log.Fatalf("Failed to initialize pipeline: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("Pipeline exited with error: %v", err)
	}
}
