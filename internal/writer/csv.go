package writer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/go-scripts/headlines/internal/types"
)

// Header is the first CSV row
var Header = []string{"index", "published", "headline"}

// ErrBadHeader is returned by ReadCSV when the first row is not Header
var ErrBadHeader = errors.New("unexpected CSV header")

// WriteCSV writes a header row followed by one row per record
func WriteCSV(w io.Writer, records []types.HeadlineRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range records {
		row := []string{strconv.Itoa(r.Index), r.PublishedAt, r.Headline}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write record %d: %w", r.Index, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a file written by WriteCSV
func ReadCSV(r io.Reader) ([]types.HeadlineRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	head, err := cr.Read()
	if err == io.EOF {
		return nil, ErrBadHeader
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i := range Header {
		if head[i] != Header[i] {
			return nil, fmt.Errorf("%w: %v", ErrBadHeader, head)
		}
	}

	var records []types.HeadlineRecord
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		index, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, fmt.Errorf("invalid index %q: %w", row[0], err)
		}
		records = append(records, types.HeadlineRecord{
			Index:       index,
			PublishedAt: row[1],
			Headline:    row[2],
		})
	}
	return records, nil
}
