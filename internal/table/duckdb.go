// Package table provides a DuckDB-backed feature table for GTF records.
// The table supplies the group-by, count, and quantile operations run by
// the summary pipeline. An empty path gives an in-memory database; file
// paths are used by the convert export.
package table

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/gtfsum/internal/gtf"
)

// AttributeColumns lists the attribute keys projected into dedicated
// columns of the features table, in schema order.
var AttributeColumns = []string{
	"gene_id",
	"gene_name",
	"gene_type",
	"transcript_id",
	"transcript_type",
	"level",
	"tag",
	"transcript_support_level",
}

// Store manages a DuckDB connection holding the feature table.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// ensureSchema creates the features table if it doesn't exist.
// Missing attribute keys are stored as NULL, never as empty strings.
func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS features (
		chrom VARCHAR,
		source VARCHAR,
		feature VARCHAR,
		start BIGINT,
		end_ BIGINT,
		score VARCHAR,
		strand VARCHAR,
		phase VARCHAR,
		gene_id VARCHAR,
		gene_name VARCHAR,
		gene_type VARCHAR,
		transcript_id VARCHAR,
		transcript_type VARCHAR,
		level VARCHAR,
		tag VARCHAR,
		transcript_support_level VARCHAR
	)`)
	return err
}

// InsertBatch appends records to the features table using the DuckDB
// Appender API.
func (s *Store) InsertBatch(records []*gtf.Record) error {
	if len(records) == 0 {
		return nil
	}

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "features")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for _, rec := range records {
		row := []driver.Value{
			rec.Chrom, rec.Source, rec.Feature,
			rec.Start, rec.End,
			rec.Score, rec.Strand, rec.Phase,
		}
		for _, key := range AttributeColumns {
			row = append(row, nullAttr(rec, key))
		}
		if err := appender.AppendRow(row...); err != nil {
			return fmt.Errorf("append feature row: %w", err)
		}
	}

	return appender.Flush()
}

// nullAttr returns the attribute value for key, or nil when the key is
// absent so it lands as SQL NULL.
func nullAttr(rec *gtf.Record, key string) driver.Value {
	if v, ok := rec.Attrs.Get(key); ok {
		return v
	}
	return nil
}

// Count returns the total number of feature rows.
func (s *Store) Count() (int64, error) {
	var count int64
	err := s.db.QueryRow("SELECT COUNT(*) FROM features").Scan(&count)
	return count, err
}

// CountRow is one group of a count aggregation.
type CountRow struct {
	Key string
	N   int64
}

// CountByFeature returns record counts grouped by feature type,
// most frequent first.
func (s *Store) CountByFeature() ([]CountRow, error) {
	return s.countBy("feature")
}

// CountBySource returns record counts grouped by annotation source.
func (s *Store) CountBySource() ([]CountRow, error) {
	return s.countBy("source")
}

// countBy groups the features table by one column. The column name is
// restricted to the known schema columns.
func (s *Store) countBy(column string) ([]CountRow, error) {
	if !isColumn(column) {
		return nil, fmt.Errorf("unknown column %q", column)
	}

	rows, err := s.db.Query(fmt.Sprintf(`
		SELECT COALESCE(%s, '%s') AS k, COUNT(*) AS n
		FROM features
		GROUP BY k
		ORDER BY n DESC, k
	`, column, gtf.Missing))
	if err != nil {
		return nil, fmt.Errorf("count by %s: %w", column, err)
	}
	defer rows.Close()

	return scanCountRows(rows)
}

// GenesPerChrom returns the number of gene records per chromosome,
// ordered by chromosome name.
func (s *Store) GenesPerChrom() ([]CountRow, error) {
	rows, err := s.db.Query(`
		SELECT chrom, COUNT(*) AS n
		FROM features
		WHERE feature = 'gene'
		GROUP BY chrom
		ORDER BY chrom
	`)
	if err != nil {
		return nil, fmt.Errorf("genes per chromosome: %w", err)
	}
	defer rows.Close()

	return scanCountRows(rows)
}

// TSLDistribution returns transcript counts grouped by transcript
// support level. Transcripts without a TSL are reported under the
// missing marker.
func (s *Store) TSLDistribution() ([]CountRow, error) {
	rows, err := s.db.Query(fmt.Sprintf(`
		SELECT COALESCE(transcript_support_level, '%s') AS tsl, COUNT(*) AS n
		FROM features
		WHERE feature = 'transcript'
		GROUP BY tsl
		ORDER BY tsl
	`, gtf.Missing))
	if err != nil {
		return nil, fmt.Errorf("TSL distribution: %w", err)
	}
	defer rows.Close()

	return scanCountRows(rows)
}

// FeatureLengths returns the base-pair lengths of all records of the
// given feature type.
func (s *Store) FeatureLengths(feature string) ([]float64, error) {
	rows, err := s.db.Query(`
		SELECT end_ - start + 1
		FROM features
		WHERE feature = ?
		ORDER BY chrom, start
	`, feature)
	if err != nil {
		return nil, fmt.Errorf("feature lengths: %w", err)
	}
	defer rows.Close()

	var lengths []float64
	for rows.Next() {
		var l float64
		if err := rows.Scan(&l); err != nil {
			return nil, fmt.Errorf("scan length: %w", err)
		}
		lengths = append(lengths, l)
	}
	return lengths, rows.Err()
}

// Chromosomes returns a sorted list of chromosomes in the table.
func (s *Store) Chromosomes() ([]string, error) {
	rows, err := s.db.Query("SELECT DISTINCT chrom FROM features ORDER BY chrom")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chroms []string
	for rows.Next() {
		var chrom string
		if err := rows.Scan(&chrom); err != nil {
			return nil, err
		}
		chroms = append(chroms, chrom)
	}
	return chroms, rows.Err()
}

func scanCountRows(rows *sql.Rows) ([]CountRow, error) {
	var result []CountRow
	for rows.Next() {
		var r CountRow
		if err := rows.Scan(&r.Key, &r.N); err != nil {
			return nil, fmt.Errorf("scan count row: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

func isColumn(name string) bool {
	switch name {
	case "chrom", "source", "feature", "score", "strand", "phase":
		return true
	}
	for _, c := range AttributeColumns {
		if name == c {
			return true
		}
	}
	return false
}

// IsStorePath checks if a path looks like a DuckDB database file.
func IsStorePath(path string) bool {
	return strings.HasSuffix(path, ".duckdb") || strings.HasSuffix(path, ".db")
}
