// Package archive writes the artefacts of a run (report text, JSON summary,
// per-channel outcomes) to a directory.
package archive

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileRef describes a file written by Writer
type FileRef struct {
	Path  string `json:"path"`
	Name  string `json:"name"`
	Bytes int64  `json:"bytes"`
	Lines int    `json:"lines"`
}

// JSONLineWriter provides streaming writes for JSON-lines format
type JSONLineWriter interface {
	WriteLine(data any) error
}

// Writer writes run artefacts to files on disk
type Writer struct {
	dir string
	now func() time.Time
}

// NewWriter creates a writer that stores files in dir, creating it if needed
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	return &Writer{dir: dir, now: time.Now}, nil
}

// Dir returns the directory where files are written
func (w *Writer) Dir() string {
	return w.dir
}

func (w *Writer) filename(name, ext string) string {
	return fmt.Sprintf("%s-%s.%s", name, w.now().Format("20060102-150405"), ext)
}

// WriteText writes content to a timestamped .txt file
func (w *Writer) WriteText(name string, content string) (FileRef, error) {
	filename := w.filename(name, "txt")
	filePath := filepath.Join(w.dir, filename)

	if err := os.WriteFile(filePath, []byte(content), 0o644); err != nil {
		return FileRef{}, fmt.Errorf("failed to write file: %w", err)
	}

	return FileRef{
		Path:  filePath,
		Name:  filename,
		Bytes: int64(len(content)),
		Lines: strings.Count(content, "\n"),
	}, nil
}

// WriteJSON marshals data to indented JSON in a timestamped file
func (w *Writer) WriteJSON(name string, data any) (FileRef, error) {
	filename := w.filename(name, "json")
	filePath := filepath.Join(w.dir, filename)

	file, err := os.Create(filePath)
	if err != nil {
		return FileRef{}, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return FileRef{}, fmt.Errorf("failed to write data: %w", err)
	}

	fi, err := file.Stat()
	if err != nil {
		return FileRef{}, fmt.Errorf("failed to stat file: %w", err)
	}

	return FileRef{
		Path:  filePath,
		Name:  filename,
		Bytes: fi.Size(),
		Lines: 1,
	}, nil
}

// jsonLineWriter implements JSONLineWriter for streaming writes directly to disk
type jsonLineWriter struct {
	bw    *bufio.Writer
	lines int
}

func (w *jsonLineWriter) WriteLine(data any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal line: %w", err)
	}
	if _, err := w.bw.Write(b); err != nil {
		return err
	}
	if err := w.bw.WriteByte('\n'); err != nil {
		return err
	}
	w.lines++
	return nil
}

// WriteJSONLines writes data in JSON-lines format using a streaming callback.
func (w *Writer) WriteJSONLines(name string, writeFn func(jw JSONLineWriter) error) (FileRef, error) {
	filename := w.filename(name, "jsonl")
	filePath := filepath.Join(w.dir, filename)

	file, err := os.Create(filePath)
	if err != nil {
		return FileRef{}, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	jw := &jsonLineWriter{bw: bufio.NewWriter(file)}

	if err := writeFn(jw); err != nil {
		return FileRef{}, err
	}

	if err := jw.bw.Flush(); err != nil {
		return FileRef{}, fmt.Errorf("failed to flush buffer: %w", err)
	}

	fi, err := file.Stat()
	if err != nil {
		return FileRef{}, fmt.Errorf("failed to stat file: %w", err)
	}

	return FileRef{
		Path:  filePath,
		Name:  filename,
		Bytes: fi.Size(),
		Lines: jw.lines,
	}, nil
}
