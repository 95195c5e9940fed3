package main

import (
	"context"
	"flag"
	"log"

	"github.com/sirupsen/logrus"
)

func main() {
	var (
		configFile  = flag.String("config", "", "Configuration file path")
		rows        = flag.Int("rows", 1000, "Number of rows to generate")
		shift       = flag.Float64("shift", 0, "Drift applied to every column (0 for a reference dataset)")
		missingRate = flag.Float64("missing", 0.02, "Fraction of cells left empty")
		seed        = flag.Uint64("seed", 0, "Random seed (0 for time based)")
		output      = flag.String("output", "dataset.csv", "Output file")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	logger := logrus.New()
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	var config *Config
	if *configFile != "" {
		var err error
		config, err = loadConfig(*configFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	} else {
		config = getDefaultConfig()
		config.Rows = *rows
		config.Shift = *shift
		config.MissingRate = *missingRate
		config.Seed = *seed
		config.OutputFile = *output
	}

	generator := NewGenerator(config, logger)

	logger.WithFields(logrus.Fields{
		"rows":        config.Rows,
		"shift":       config.Shift,
		"output_file": config.OutputFile,
	}).Info("Starting test data generation")

	records, err := generator.Generate(context.Background())
	if err != nil {
		log.Fatalf("Failed to generate data: %v", err)
	}

	if err := generator.SaveToFile(records, config.OutputFile); err != nil {
		log.Fatalf("Failed to save data: %v", err)
	}

	logger.WithFields(logrus.Fields{
		"rows_generated": len(records) - 1,
		"output_file":    config.OutputFile,
	}).Info("Test data generation completed")
}
