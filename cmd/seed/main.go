package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"medichain-be/internal/bootstrap"
	"medichain-be/internal/config"
	"medichain-be/internal/pkg/logger"
	"medichain-be/internal/repository/implementation"
	"medichain-be/pkg/database"
	"medichain-be/pkg/rag/search"
)

const (
	formatPgvector = "pgvector"
	formatFvecs    = "fvecs"
)

// Loads every .txt/.md file under -dir as one collection, either into the
// passage store or as a raw index.fvecs + chunks.txt artifact, e.g.
//
//	go run ./cmd/seed -collection treatment -dir data/treatment
//	go run ./cmd/seed -format fvecs -dir data/medicine -out vector_db/medicine
func main() {
	format := flag.String("format", formatPgvector, "output format: pgvector or fvecs")
	collection := flag.String("collection", "", "passage collection (category label), pgvector only")
	dir := flag.String("dir", "", "directory of reference documents")
	out := flag.String("out", "", "artifact directory, fvecs only")
	chunkSize := flag.Int("chunk", search.DefaultChunkSize, "chunk size in characters")
	overlap := flag.Int("overlap", search.DefaultChunkOverlap, "chunk overlap in characters")
	flag.Parse()

	switch {
	case *dir == "":
		flag.Usage()
		os.Exit(2)
	case *format == formatPgvector && *collection == "":
		flag.Usage()
		os.Exit(2)
	case *format == formatFvecs && *out == "":
		flag.Usage()
		os.Exit(2)
	case *format != formatPgvector && *format != formatFvecs:
		log.Fatalf("Error: unknown format %q", *format)
	}

	cfg := config.Load()
	appLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())

	embeddingProvider, err := bootstrap.NewEmbeddingProvider(cfg)
	if err != nil {
		log.Fatal("Error: ", err)
	}

	docs, err := readDocuments(*dir)
	if err != nil {
		log.Fatal("Error: ", err)
	}

	ctx := context.Background()
	if *format == formatFvecs {
		builder := search.NewArtifactBuilder(embeddingProvider, *chunkSize, *overlap, appLogger)
		for _, d := range docs {
			log.Printf("Chunked %s: %d passages", d.name, builder.Add(d.text))
		}
		n, err := builder.Write(ctx, *out)
		if err != nil {
			log.Fatal("Error: ", err)
		}
		log.Printf("✅ Wrote %d passages to %s", n, *out)
		return
	}

	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}
	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, true)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	ingester := search.NewIngester(
		embeddingProvider,
		implementation.NewPassageRepository(db),
		*chunkSize,
		*overlap,
		appLogger,
	)

	total := 0
	for _, d := range docs {
		n, err := ingester.Ingest(ctx, *collection, d.name, d.text)
		if err != nil {
			log.Printf("Warn: skip %s: %v", d.name, err)
			continue
		}
		log.Printf("Seeded %s: %d passages", d.name, n)
		total += n
	}

	log.Printf("✅ Seeded %d passages into %q", total, *collection)
}

type document struct {
	name string
	text string
}

func readDocuments(dir string) ([]document, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var docs []document
	for _, f := range files {
		ext := strings.ToLower(filepath.Ext(f.Name()))
		if f.IsDir() || (ext != ".txt" && ext != ".md") {
			continue
		}
		text, err := os.ReadFile(filepath.Join(dir, f.Name()))
		if err != nil {
			log.Printf("Warn: skip %s: %v", f.Name(), err)
			continue
		}
		docs = append(docs, document{name: f.Name(), text: string(text)})
	}
	return docs, nil
}
