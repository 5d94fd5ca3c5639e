package main

import (
	"context"
	"flag"
	"log"

	kce "github.com/atldata/igs/pkg/configs/etl"
	kdbsql "github.com/atldata/igs/pkg/db/sql"
	"github.com/atldata/igs/pkg/etl"
)

func main() {

	configPath := flag.String("config-path", "", "etl config path")
	rawPath := flag.String("raw", "", "raw CSV path (overrides config)")
	cleanedPath := flag.String("cleaned", "", "cleaned CSV path (overrides config)")
	dburi := flag.String("database", "", "database path or postgres:// URI (overrides config)")
	batchSize := flag.Int("batch-size", 0, "bulk insert batch size (overrides config)")
	flag.Parse()

	conf, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("can not read configration: %s", err)
	}
	if *rawPath != "" {
		conf.RawPath = *rawPath
	}
	if *cleanedPath != "" {
		conf.CleanedPath = *cleanedPath
	}
	if *dburi != "" {
		conf.DBURI = *dburi
	}
	if *batchSize > 0 {
		conf.BatchSize = *batchSize
	}

	ctx := context.Background()

	db, err := kdbsql.New(ctx, conf.DBURI)
	if err != nil {
		log.Fatalf("can not open database %s: %s", conf.DBURI, err)
	}
	defer db.Close()

	pipeline := &etl.Pipeline{
		RawPath:     conf.RawPath,
		CleanedPath: conf.CleanedPath,
		Database:    db,
		BatchSize:   conf.BatchSize,
	}

	stats, err := pipeline.Run(ctx)
	if err != nil {
		log.Fatalf("pipeline failed: %s", err)
	}

	log.Printf(
		"done: %d cleaned, %d loaded, %d skipped, %d warnings in %v",
		stats.RecordsCleaned, stats.RecordsLoaded, stats.RecordsSkipped,
		len(stats.Warnings), stats.Duration,
	)
}

func loadConfig(path string) (*kce.EtlConfig, error) {
	if path == "" {
		return kce.Unmarshal([]byte{})
	}
	return kce.LoadEtlConfig(path)
}
