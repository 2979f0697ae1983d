package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/englishaccelerators/language-creator/pkg/types"
)

// CSVName is the CSV export file name for a reason slug.
func CSVName(slug string) string { return slug + "-entry.csv" }

// SpreadsheetName is the spreadsheet export file name for a reason slug.
func SpreadsheetName(slug string) string { return slug + "-entry.xls" }

// SavedName is the spreadsheet produced after a successful save.
func SavedName(slug string) string { return slug + "-entry-saved.xls" }

// ComposerName is the composer text file name for a reason slug.
func ComposerName(slug string) string { return slug + "-entry.md" }

// Dir writes export artifacts into a directory.
type Dir struct {
	Path string
}

// WriteCSV renders pairs as CSV into name and returns the file path.
func (d Dir) WriteCSV(name string, pairs []types.Pair) (string, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, pairs); err != nil {
		return "", err
	}
	return d.write(name, buf.Bytes())
}

// WriteSpreadsheet renders pairs as an HTML table into name and returns the
// file path.
func (d Dir) WriteSpreadsheet(name string, pairs []types.Pair) (string, error) {
	var buf bytes.Buffer
	if err := WriteSpreadsheet(&buf, pairs); err != nil {
		return "", err
	}
	return d.write(name, buf.Bytes())
}

// WriteText writes composer text into name and returns the file path.
func (d Dir) WriteText(name, text string) (string, error) {
	return d.write(name, []byte(text))
}

// write replaces name atomically using the temp-file, fsync, rename pattern.
func (d Dir) write(name string, data []byte) (string, error) {
	dir := d.Path
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, name)

	tmp, err := os.CreateTemp(dir, ".export-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("writing %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("renaming temp file: %w", err)
	}
	return path, nil
}
