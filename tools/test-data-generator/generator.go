package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/inferloop/datadrift/pkg/errors"
	"github.com/inferloop/datadrift/pkg/models"
)

type Config struct {
	Rows        int          `json:"rows"`
	Seed        uint64       `json:"seed"`
	MissingRate float64      `json:"missing_rate"`
	Shift       float64      `json:"shift"` // drift applied to every column, 0 for a reference dataset
	OutputFile  string       `json:"output_file"`
	Columns     []ColumnSpec `json:"columns"`
}

type ColumnSpec struct {
	Name string            `json:"name"`
	Type models.ColumnType `json:"type"`

	// numeric
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`

	// categorical
	Categories []string  `json:"categories"`
	Weights    []float64 `json:"weights"`

	// datetime
	Start    time.Time     `json:"start"`
	Interval time.Duration `json:"interval"`
}

type Generator struct {
	config *Config
	logger *logrus.Logger
	src    rand.Source
	rand   *rand.Rand
}

func NewGenerator(config *Config, logger *logrus.Logger) *Generator {
	if logger == nil {
		logger = logrus.New()
	}
	seed := config.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	return &Generator{
		config: config,
		logger: logger,
		src:    src,
		rand:   rand.New(src),
	}
}

func (g *Generator) Validate() error {
	if g.config.Rows <= 0 {
		return errors.NewConfigurationError("rows must be positive")
	}
	if g.config.MissingRate < 0 || g.config.MissingRate >= 1 {
		return errors.NewConfigurationError("missing_rate must be in [0, 1)")
	}
	if len(g.config.Columns) == 0 {
		return errors.NewConfigurationError("at least one column is required")
	}

	seen := make(map[string]bool)
	for _, col := range g.config.Columns {
		if col.Name == "" || seen[col.Name] {
			return errors.NewConfigurationError(fmt.Sprintf("column names must be unique and non-empty: %q", col.Name))
		}
		seen[col.Name] = true

		switch col.Type {
		case models.ColumnTypeNumeric:
			if col.StdDev <= 0 {
				return errors.NewConfigurationError(fmt.Sprintf("column %s: std_dev must be positive", col.Name))
			}
		case models.ColumnTypeCategorical:
			if len(col.Categories) == 0 {
				return errors.NewConfigurationError(fmt.Sprintf("column %s: categories are required", col.Name))
			}
			if len(col.Weights) != 0 && len(col.Weights) != len(col.Categories) {
				return errors.NewConfigurationError(fmt.Sprintf("column %s: weights must match categories", col.Name))
			}
		case models.ColumnTypeDatetime:
			if col.Interval <= 0 {
				return errors.NewConfigurationError(fmt.Sprintf("column %s: interval must be positive", col.Name))
			}
		default:
			return errors.NewUnsupportedTypeError(fmt.Sprintf("column %s: %s", col.Name, col.Type))
		}
	}
	return nil
}

// Generate returns the header followed by Rows records
func (g *Generator) Generate(ctx context.Context) ([][]string, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	samplers := make([]func(row int) string, len(g.config.Columns))
	header := make([]string, len(g.config.Columns))
	for i, col := range g.config.Columns {
		header[i] = col.Name
		samplers[i] = g.sampler(col)
	}

	records := make([][]string, 0, g.config.Rows+1)
	records = append(records, header)

	for row := 0; row < g.config.Rows; row++ {
		if row%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, errors.NewCancelledError(err)
			}
		}

		record := make([]string, len(samplers))
		for i, sample := range samplers {
			if g.config.MissingRate > 0 && g.rand.Float64() < g.config.MissingRate {
				continue
			}
			record[i] = sample(row)
		}
		records = append(records, record)
	}

	g.logger.WithFields(logrus.Fields{
		"rows":    g.config.Rows,
		"columns": len(header),
		"shift":   g.config.Shift,
	}).Debug("Generated dataset")

	return records, nil
}

func (g *Generator) sampler(col ColumnSpec) func(row int) string {
	shift := g.config.Shift

	switch col.Type {
	case models.ColumnTypeNumeric:
		dist := distuv.Normal{Mu: col.Mean + shift*col.StdDev, Sigma: col.StdDev, Src: g.src}
		return func(int) string {
			return strconv.FormatFloat(dist.Rand(), 'f', 4, 64)
		}

	case models.ColumnTypeCategorical:
		dist := distuv.NewCategorical(shiftedWeights(col, shift), g.src)
		return func(int) string {
			return col.Categories[int(dist.Rand())]
		}

	default:
		start := col.Start
		if start.IsZero() {
			start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		}
		start = start.Add(time.Duration(shift * float64(g.config.Rows) * float64(col.Interval)))
		return func(row int) string {
			return start.Add(time.Duration(row) * col.Interval).Format(time.RFC3339)
		}
	}
}

// shiftedWeights tilts the category weights towards later categories as
// shift grows.
func shiftedWeights(col ColumnSpec, shift float64) []float64 {
	weights := make([]float64, len(col.Categories))
	for i := range weights {
		w := 1.0
		if len(col.Weights) == len(col.Categories) {
			w = col.Weights[i]
		}
		weights[i] = w * math.Exp(shift*float64(i))
	}
	return weights
}

func WriteCSV(w io.Writer, records [][]string) error {
	writer := csv.NewWriter(w)
	if err := writer.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}

func (g *Generator) SaveToFile(records [][]string, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	return WriteCSV(file, records)
}

func loadConfig(filename string) (*Config, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var config Config
	if err := json.NewDecoder(file).Decode(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func getDefaultConfig() *Config {
	return &Config{
		Rows:        1000,
		MissingRate: 0.02,
		OutputFile:  "dataset.csv",
		Columns: []ColumnSpec{
			{Name: "age", Type: models.ColumnTypeNumeric, Mean: 40, StdDev: 10},
			{Name: "income", Type: models.ColumnTypeNumeric, Mean: 52000, StdDev: 15000},
			{
				Name:       "plan",
				Type:       models.ColumnTypeCategorical,
				Categories: []string{"basic", "pro", "enterprise"},
				Weights:    []float64{0.6, 0.3, 0.1},
			},
			{Name: "signup", Type: models.ColumnTypeDatetime, Interval: time.Hour},
		},
	}
}
