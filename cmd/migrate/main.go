package main

import (
	"log"
	"os"

	"medichain-be/internal/model"
	"medichain-be/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn, false)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Step 1: Setting up extensions...")
	for _, sql := range []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS vector;`,
	} {
		if err := db.Exec(sql).Error; err != nil {
			log.Fatalf("Error: setup SQL failed: %v", err)
		}
	}

	log.Println("Step 2: Running AutoMigrate...")
	if err := db.AutoMigrate(&model.PassageEmbedding{}, &model.ChatTurn{}); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	log.Println("Step 3: Creating vector index...")
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_passage_embeddings_hnsw
		ON passage_embeddings USING hnsw (embedding_value vector_cosine_ops);`).Error; err != nil {
		log.Printf("Warn: vector index not created: %v", err)
	}

	log.Println("✅ Migration complete")
}
