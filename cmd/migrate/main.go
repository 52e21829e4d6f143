package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/VOID-NULLED/hackathon-OCR/internal/repository/sqlite"
)

func main() {
	_ = godotenv.Load()

	dbPath := flag.String("db", filepath.Join("data", "captures.db"), "Database path")
	window := flag.Duration("prune", 0, "Optionally delete frames older than this duration (e.g. 720h)")
	flag.Parse()

	fmt.Printf("Migrating capture database %s\n", *dbPath)

	// Ensure database directory exists
	if err := os.MkdirAll(filepath.Dir(*dbPath), 0755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	// Opening the database applies the schema
	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	fmt.Println("✅ Schema is up to date")

	if *window > 0 {
		frameRepo := sqlite.NewFrameRepository(db)
		cutoff := time.Now().Add(-*window)
		deleted, err := frameRepo.DeleteOlderThan(cutoff)
		if err != nil {
			log.Fatalf("Failed to prune old frames: %v", err)
		}
		fmt.Printf("🧹 Pruned %d frame(s) captured before %s\n", deleted, cutoff.Format(time.RFC3339))
	}
}
