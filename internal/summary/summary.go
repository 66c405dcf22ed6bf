// Package summary runs group-by, count, and quantile summaries over a
// parsed GTF feature table.
package summary

import (
	"fmt"

	"github.com/montanaflynn/stats"
	"go.uber.org/zap"

	"github.com/inodb/gtfsum/internal/gtf"
	"github.com/inodb/gtfsum/internal/table"
)

// insertBatchSize bounds how many records are buffered between appender
// flushes while loading.
const insertBatchSize = 8192

// Quantiles summarizes the length distribution of one feature type.
type Quantiles struct {
	Feature string
	N       int
	Min     float64
	P25     float64
	Median  float64
	P75     float64
	Max     float64
	Mean    float64
}

// Report holds the aggregated results of one analysis run.
type Report struct {
	Total         int64
	Skipped       int
	Features      []table.CountRow
	Sources       []table.CountRow
	GenesPerChrom []table.CountRow
	Lengths       []Quantiles
	TSL           []table.CountRow
}

// Pipeline runs the read, parse, project, and aggregate stages. Each
// stage returns a new value; no stage mutates the output of another.
type Pipeline struct {
	logger         *zap.Logger
	lengthFeatures []string
}

// NewPipeline creates a pipeline summarizing lengths for the given
// feature types (defaults to gene, transcript, exon).
func NewPipeline(lengthFeatures []string) *Pipeline {
	if len(lengthFeatures) == 0 {
		lengthFeatures = []string{"gene", "transcript", "exon"}
	}
	return &Pipeline{
		logger:         zap.NewNop(),
		lengthFeatures: lengthFeatures,
	}
}

// SetLogger sets the logger for progress and warning messages.
func (p *Pipeline) SetLogger(l *zap.Logger) {
	p.logger = l
}

// Load reads all records from r and projects them into the store.
// Returns the number of records loaded.
func (p *Pipeline) Load(r *gtf.Reader, s *table.Store) (int64, error) {
	var total int64
	batch := make([]*gtf.Record, 0, insertBatchSize)

	for {
		rec, err := r.Next()
		if err != nil {
			return total, fmt.Errorf("read record: %w", err)
		}
		if rec == nil {
			break
		}

		batch = append(batch, rec)
		total++

		if len(batch) == insertBatchSize {
			if err := s.InsertBatch(batch); err != nil {
				return total, fmt.Errorf("insert records: %w", err)
			}
			batch = batch[:0]
		}
	}

	if err := s.InsertBatch(batch); err != nil {
		return total, fmt.Errorf("insert records: %w", err)
	}

	if skipped := r.Skipped(); skipped > 0 {
		p.logger.Warn("skipped malformed lines", zap.Int("count", skipped))
	}
	p.logger.Info("loaded records", zap.Int64("count", total))

	return total, nil
}

// Summarize aggregates the feature table into a Report.
func (p *Pipeline) Summarize(s *table.Store) (*Report, error) {
	total, err := s.Count()
	if err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}

	features, err := s.CountByFeature()
	if err != nil {
		return nil, err
	}

	sources, err := s.CountBySource()
	if err != nil {
		return nil, err
	}

	genes, err := s.GenesPerChrom()
	if err != nil {
		return nil, err
	}

	tsl, err := s.TSLDistribution()
	if err != nil {
		return nil, err
	}

	var lengths []Quantiles
	for _, feature := range p.lengthFeatures {
		data, err := s.FeatureLengths(feature)
		if err != nil {
			return nil, err
		}
		if len(data) == 0 {
			continue
		}
		q, err := lengthQuantiles(feature, data)
		if err != nil {
			return nil, fmt.Errorf("quantiles for %s: %w", feature, err)
		}
		lengths = append(lengths, q)
	}

	return &Report{
		Total:         total,
		Features:      features,
		Sources:       sources,
		GenesPerChrom: genes,
		Lengths:       lengths,
		TSL:           tsl,
	}, nil
}

// Run loads all records from r into s and returns the aggregated report.
func (p *Pipeline) Run(r *gtf.Reader, s *table.Store) (*Report, error) {
	if _, err := p.Load(r, s); err != nil {
		return nil, err
	}

	report, err := p.Summarize(s)
	if err != nil {
		return nil, err
	}
	report.Skipped = r.Skipped()

	return report, nil
}

// lengthQuantiles computes the length distribution of one feature type.
func lengthQuantiles(feature string, data []float64) (Quantiles, error) {
	if len(data) == 1 {
		v := data[0]
		return Quantiles{Feature: feature, N: 1, Min: v, P25: v, Median: v, P75: v, Max: v, Mean: v}, nil
	}

	d := stats.LoadRawData(data)

	min, err := d.Min()
	if err != nil {
		return Quantiles{}, err
	}
	max, err := d.Max()
	if err != nil {
		return Quantiles{}, err
	}
	mean, err := d.Mean()
	if err != nil {
		return Quantiles{}, err
	}
	quartiles, err := stats.Quartile(d)
	if err != nil {
		return Quantiles{}, err
	}

	return Quantiles{
		Feature: feature,
		N:       len(data),
		Min:     min,
		P25:     quartiles.Q1,
		Median:  quartiles.Q2,
		P75:     quartiles.Q3,
		Max:     max,
		Mean:    mean,
	}, nil
}
