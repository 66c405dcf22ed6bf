package gtf

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"
)

// Reader reads GTF records from a file one at a time.
// Comment lines (starting with '#') and blank lines are skipped.
// Malformed lines are skipped and counted by default; SetStrict makes
// them errors instead.
type Reader struct {
	file    *os.File
	gz      *gzip.Reader
	scanner *bufio.Scanner
	logger  *zap.Logger
	strict  bool
	skipped int
	line    int
}

// Open opens a GTF file for reading. Gzipped files are detected by
// magic bytes. Use "-" to read from stdin.
func Open(path string) (*Reader, error) {
	if path == "-" {
		return NewReader(os.Stdin), nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open GTF file: %w", err)
	}

	// Check for gzip magic number (0x1f, 0x8b)
	buf := make([]byte, 2)
	if _, err := file.Read(buf); err != nil {
		file.Close()
		return nil, fmt.Errorf("read GTF header: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		return nil, fmt.Errorf("seek GTF file: %w", err)
	}

	r := &Reader{file: file, logger: zap.NewNop()}

	if buf[0] == 0x1f && buf[1] == 0x8b {
		r.gz, err = gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		r.scanner = newScanner(r.gz)
	} else {
		r.scanner = newScanner(file)
	}

	return r, nil
}

// NewReader creates a Reader from an io.Reader (e.g. stdin).
func NewReader(rd io.Reader) *Reader {
	return &Reader{
		scanner: newScanner(rd),
		logger:  zap.NewNop(),
	}
}

// newScanner builds a line scanner sized for GENCODE attribute columns.
func newScanner(rd io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(rd)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)
	return scanner
}

// SetStrict configures malformed-line handling. When strict, a line with
// the wrong field count or bad coordinates is returned as an error, and
// malformed attribute entries are logged as warnings.
func (r *Reader) SetStrict(strict bool) {
	r.strict = strict
}

// SetLogger sets the logger for strict-mode attribute warnings.
func (r *Reader) SetLogger(l *zap.Logger) {
	r.logger = l
}

// Skipped returns the number of malformed lines skipped so far.
func (r *Reader) Skipped() int {
	return r.skipped
}

// Next returns the next record, or (nil, nil) at end of input.
func (r *Reader) Next() (*Record, error) {
	for r.scanner.Scan() {
		r.line++
		line := r.scanner.Text()

		if line == "" || line[0] == '#' {
			continue
		}

		if r.strict {
			rec, warnings, err := ParseRecordStrict(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", r.line, err)
			}
			for _, w := range warnings {
				r.logger.Warn("malformed attribute entry",
					zap.Int("line", r.line),
					zap.String("entry", w.Entry),
					zap.String("reason", w.Reason))
			}
			return rec, nil
		}

		rec, err := ParseRecord(line)
		if err != nil {
			r.skipped++
			r.logger.Debug("skipping malformed line",
				zap.Int("line", r.line),
				zap.Error(err))
			continue
		}
		return rec, nil
	}

	if err := r.scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan GTF: %w", err)
	}
	return nil, nil
}

// Close releases the underlying file and gzip handles.
func (r *Reader) Close() error {
	if r.gz != nil {
		if err := r.gz.Close(); err != nil {
			if r.file != nil {
				r.file.Close()
			}
			return err
		}
	}
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}
