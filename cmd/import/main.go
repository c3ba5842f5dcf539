package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/diemthi/thpt-score-backend/internal/cache"
	"github.com/diemthi/thpt-score-backend/internal/config"
	"github.com/diemthi/thpt-score-backend/internal/database"
	"github.com/diemthi/thpt-score-backend/internal/ingest"
	"github.com/diemthi/thpt-score-backend/internal/logger"
	"github.com/diemthi/thpt-score-backend/internal/repository"
	"github.com/diemthi/thpt-score-backend/internal/service"
)

// Imports an exam-result CSV into PostgreSQL and invalidates the
// score-derived cache entries when done. Safe to re-run over the same file:
// every insert skips on conflict.
func main() {
	var (
		filePath  string
		batchSize int
	)
	flag.StringVar(&filePath, "file", "dataset/diem_thi_thpt_2024.csv", "Path to the exam-result CSV file")
	flag.IntVar(&batchSize, "batch-size", 0, "Rows per batch (overrides IMPORT_BATCH_SIZE)")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	if batchSize <= 0 {
		batchSize = cfg.ImportBatchSize
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Hour)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	file, err := os.Open(filePath)
	if err != nil {
		log.Fatal().Err(err).Str("file", filePath).Msg("Failed to open source file")
	}
	defer file.Close()

	subjectRepo := repository.NewSubjectRepository(pool)
	studentRepo := repository.NewStudentRepository(pool)
	scoreRepo := repository.NewScoreRepository(pool)

	pipeline := ingest.NewPipeline(subjectRepo, studentRepo, scoreRepo, batchSize, log)

	fmt.Printf("Importing %s (batch size %d)...\n", filePath, batchSize)
	started := time.Now()

	stats, err := pipeline.Run(ctx, file)
	if err != nil {
		log.Fatal().Err(err).Msg("Import failed; re-run to resume (inserts are idempotent)")
	}

	fmt.Printf("Imported %d rows (%d students, %d scores) in %d batches, took %s\n",
		stats.Rows, stats.Students, stats.Scores, stats.Batches, time.Since(started).Round(time.Second))
	if total, err := scoreRepo.Count(ctx); err == nil {
		fmt.Printf("Database now holds %d score rows\n", total)
	}
	if stats.SkippedRows > 0 || stats.BadCells > 0 {
		fmt.Printf("Warnings: %d rows skipped (bad sbd), %d score cells unparseable\n",
			stats.SkippedRows, stats.BadCells)
	}

	// The read API may be serving stale aggregates now; drop them.
	cacheStore := cache.NewRedisStore(cfg, log)
	defer cacheStore.Close()

	subjectService := service.NewSubjectService(subjectRepo, scoreRepo, cacheStore, log)
	subjectService.InvalidateDerived(ctx)

	fmt.Println("Import completed!")
}
