// Package writer persists harvested headlines as CSV, JSON or SQLite and
// renders a short preview for the terminal.
package writer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-scripts/headlines/internal/types"
)

// Supported output formats
const (
	FormatCSV    = "csv"
	FormatJSON   = "json"
	FormatSQLite = "sqlite"
)

// SQLiteFilename is the database every sqlite run appends to
const SQLiteFilename = "headlines.db"

// FileWriter writes one run's records into the output directory
type FileWriter struct {
	outputDir string
	format    string
	// path overrides the derived file name when set
	path string
}

// New creates a FileWriter, creating outputDir if needed
func New(outputDir, format, path string) (*FileWriter, error) {
	switch format {
	case FormatCSV, FormatJSON, FormatSQLite:
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
	if outputDir == "" {
		outputDir = "."
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &FileWriter{outputDir: outputDir, format: format, path: path}, nil
}

// Path returns where records for term will be written
func (w *FileWriter) Path(term string) string {
	if w.path != "" {
		return w.path
	}
	if w.format == FormatSQLite {
		return filepath.Join(w.outputDir, SQLiteFilename)
	}
	return filepath.Join(w.outputDir, Filename(term, w.format))
}

// Write persists records and returns the file they went to
func (w *FileWriter) Write(ctx context.Context, d types.QueryDescriptor, records []types.HeadlineRecord) (string, error) {
	path := w.Path(d.Term)

	switch w.format {
	case FormatSQLite:
		store, err := OpenStore(ctx, path)
		if err != nil {
			return "", err
		}
		defer store.Close()

		if _, err := store.Save(ctx, d, records); err != nil {
			return "", err
		}
		return path, nil

	case FormatJSON:
		return path, w.writeJSON(path, records)

	default:
		return path, w.writeCSV(path, records)
	}
}

func (w *FileWriter) writeCSV(path string, records []types.HeadlineRecord) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if err := WriteCSV(file, records); err != nil {
		return err
	}
	return file.Close()
}

func (w *FileWriter) writeJSON(path string, records []types.HeadlineRecord) error {
	if records == nil {
		records = []types.HeadlineRecord{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// Filename derives the output file name for a search term
func Filename(term, ext string) string {
	return sanitizeFilename("HS Articles for "+strings.TrimSpace(term)) + "." + ext
}

// sanitizeFilename replaces characters that are unsafe in file names
func sanitizeFilename(name string) string {
	unsafe := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|", " "}
	for _, char := range unsafe {
		name = strings.ReplaceAll(name, char, "_")
	}
	return name
}
