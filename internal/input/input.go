// internal/input/input.go
// Package input discovers refinable documents on disk. The input directory
// holds loose JSON files and zip archives; archives are unpacked in place and
// their JSON entries join the work list. Producers have been seen shipping
// plain JSON files with a .zip extension, so a failed archive open falls back
// to a JSON probe before the file is given up on.
package input

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Scanner discovers input documents under a directory.
type Scanner struct {
	log *slog.Logger
}

// NewScanner creates an input scanner.
func NewScanner(log *slog.Logger) *Scanner {
	if log == nil {
		log = slog.Default()
	}
	return &Scanner{log: log}
}

// Scan returns the paths of all JSON documents under dir, unpacking zip
// archives as it encounters them. The scan is non-recursive: producers drop
// flat batches.
func (s *Scanner) Scan(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input directory: %w", err)
	}

	var docs []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".json":
			docs = append(docs, path)
		case ".zip":
			unpacked, err := s.unpack(path)
			if err != nil {
				s.log.Warn("skipping unreadable archive", "path", path, "error", err)
				continue
			}
			docs = append(docs, unpacked...)
		}
	}
	return docs, nil
}

// unpack extracts the JSON entries of an archive next to it and returns their
// paths. A file that is not a zip at all but parses as JSON is returned
// as-is.
func (s *Scanner) unpack(path string) ([]string, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		if isJSONFile(path) {
			s.log.Warn("archive is plain JSON, using it directly", "path", path)
			return []string{path}, nil
		}
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer reader.Close()

	destDir := strings.TrimSuffix(path, filepath.Ext(path))
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("create extraction directory: %w", err)
	}

	var docs []string
	for _, file := range reader.File {
		if file.FileInfo().IsDir() || !strings.EqualFold(filepath.Ext(file.Name), ".json") {
			continue
		}
		// Entry names come from the archive; flatten to the base name so a
		// crafted path can never escape the extraction directory.
		dest := filepath.Join(destDir, filepath.Base(file.Name))
		if err := extractFile(file, dest); err != nil {
			s.log.Warn("skipping unextractable archive entry", "path", path, "entry", file.Name, "error", err)
			continue
		}
		docs = append(docs, dest)
	}
	return docs, nil
}

// extractFile copies one archive entry to dest.
func extractFile(file *zip.File, dest string) error {
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, src)
	return err
}

// isJSONFile probes whether a file starts with a JSON value.
func isJSONFile(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	head := make([]byte, 64)
	n, err := f.Read(head)
	if err != nil && err != io.EOF {
		return false
	}
	head = bytes.TrimSpace(head[:n])
	return len(head) > 0 && (head[0] == '{' || head[0] == '[')
}
