package summary

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/inodb/gtfsum/internal/gtf"
	"github.com/inodb/gtfsum/internal/table"
)

// TabWriter renders a Report as tab-delimited sections.
type TabWriter struct {
	w *bufio.Writer
}

// NewTabWriter creates a new tab-delimited report writer.
func NewTabWriter(w io.Writer) *TabWriter {
	return &TabWriter{w: bufio.NewWriter(w)}
}

// WriteReport writes all report sections.
func (tw *TabWriter) WriteReport(rep *Report) error {
	fmt.Fprintf(tw.w, "#Summary\n")
	fmt.Fprintf(tw.w, "total_records\t%d\n", rep.Total)
	if rep.Skipped > 0 {
		fmt.Fprintf(tw.w, "skipped_lines\t%d\n", rep.Skipped)
	}

	tw.writeCounts("#Feature_counts", "feature", rep.Features)
	tw.writeCounts("#Source_counts", "source", rep.Sources)
	tw.writeCounts("#Genes_per_chromosome", "chrom", rep.GenesPerChrom)

	if len(rep.Lengths) > 0 {
		fmt.Fprintf(tw.w, "\n#Length_quantiles\n")
		fmt.Fprintf(tw.w, "feature\tn\tmin\tp25\tmedian\tp75\tmax\tmean\n")
		for _, q := range rep.Lengths {
			fmt.Fprintf(tw.w, "%s\t%d\t%.0f\t%.1f\t%.1f\t%.1f\t%.0f\t%.1f\n",
				q.Feature, q.N, q.Min, q.P25, q.Median, q.P75, q.Max, q.Mean)
		}
	}

	tw.writeCounts("#Transcript_support_level", "tsl", rep.TSL)

	return tw.w.Flush()
}

func (tw *TabWriter) writeCounts(section, label string, counts []table.CountRow) {
	if len(counts) == 0 {
		return
	}
	fmt.Fprintf(tw.w, "\n%s\n", section)
	fmt.Fprintf(tw.w, "%s\tcount\n", label)
	for _, c := range counts {
		fmt.Fprintf(tw.w, "%s\t%d\n", c.Key, c.N)
	}
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}

// RecordWriter writes records as TSV rows: the positional GTF fields
// followed by one column per requested attribute key. Missing keys are
// rendered as the explicit missing marker, never as an empty string.
type RecordWriter struct {
	w    *bufio.Writer
	keys []string
}

// NewRecordWriter creates a TSV writer projecting the given attribute
// keys as columns.
func NewRecordWriter(w io.Writer, keys []string) *RecordWriter {
	return &RecordWriter{w: bufio.NewWriter(w), keys: keys}
}

// WriteHeader writes the column header line.
func (rw *RecordWriter) WriteHeader() error {
	columns := append([]string{
		"#chrom", "source", "feature", "start", "end", "score", "strand", "phase",
	}, rw.keys...)
	_, err := rw.w.WriteString(strings.Join(columns, "\t") + "\n")
	return err
}

// Write writes a single record row.
func (rw *RecordWriter) Write(rec *gtf.Record) error {
	values := []string{
		rec.Chrom,
		rec.Source,
		rec.Feature,
		fmt.Sprintf("%d", rec.Start),
		fmt.Sprintf("%d", rec.End),
		rec.Score,
		rec.Strand,
		rec.Phase,
	}
	for _, key := range rw.keys {
		values = append(values, rec.Attr(key))
	}

	_, err := rw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (rw *RecordWriter) Flush() error {
	return rw.w.Flush()
}
