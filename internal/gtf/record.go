package gtf

import (
	"fmt"
	"strconv"
	"strings"
)

// Missing is the rendering of an absent value in GTF positional columns
// and in tabular projections of attribute keys.
const Missing = "."

// Record represents one non-comment line of a GTF file.
// Start and End are 1-based inclusive coordinates with End >= Start.
// Score and Phase are kept as raw text ("." when absent).
type Record struct {
	Chrom   string
	Source  string
	Feature string
	Start   int64
	End     int64
	Score   string
	Strand  string
	Phase   string
	Attrs   Attributes
}

// Length returns the span of the record in bases (inclusive coordinates).
func (r *Record) Length() int64 {
	return r.End - r.Start + 1
}

// Attr returns the value of an attribute key, or Missing if the key is
// absent from the record.
func (r *Record) Attr(key string) string {
	if v, ok := r.Attrs.Get(key); ok {
		return v
	}
	return Missing
}

// ParseRecord parses a single GTF line into a Record. Attribute entries
// that are malformed are skipped; use ParseRecordStrict to collect them.
func ParseRecord(line string) (*Record, error) {
	rec, _, err := parseRecord(line, false)
	return rec, err
}

// ParseRecordStrict parses a single GTF line and reports malformed
// attribute entries as warnings.
func ParseRecordStrict(line string) (*Record, []ParseWarning, error) {
	return parseRecord(line, true)
}

func parseRecord(line string, strict bool) (*Record, []ParseWarning, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != 9 {
		return nil, nil, fmt.Errorf("invalid GTF line: expected 9 fields, got %d", len(fields))
	}

	start, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		return nil, nil, fmt.Errorf("parse start: %w", err)
	}

	end, err := strconv.ParseInt(fields[4], 10, 64)
	if err != nil {
		return nil, nil, fmt.Errorf("parse end: %w", err)
	}

	if end < start {
		return nil, nil, fmt.Errorf("invalid coordinates: end %d < start %d", end, start)
	}

	var attrs Attributes
	var warnings []ParseWarning
	if strict {
		attrs, warnings = ParseAttributesStrict(fields[8])
	} else {
		attrs = ParseAttributes(fields[8])
	}

	rec := &Record{
		Chrom:   fields[0],
		Source:  fields[1],
		Feature: fields[2],
		Start:   start,
		End:     end,
		Score:   fields[5],
		Strand:  fields[6],
		Phase:   fields[7],
		Attrs:   attrs,
	}

	return rec, warnings, nil
}
