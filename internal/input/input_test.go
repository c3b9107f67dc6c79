package input

import (
	"archive/zip"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func writeZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range entries {
		entry, err := w.Create(name)
		if err != nil {
			t.Fatalf("create entry %s: %v", name, err)
		}
		if _, err := entry.Write([]byte(content)); err != nil {
			t.Fatalf("write entry %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
}

func baseNames(paths []string) []string {
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	sort.Strings(names)
	return names
}

func TestScanLooseJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.json"), `{"source":"telegramMiner"}`)
	writeFile(t, filepath.Join(dir, "b.JSON"), `{"source":"telegram"}`)
	writeFile(t, filepath.Join(dir, "ignore.txt"), "nope")

	docs, err := NewScanner(nil).Scan(dir)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	got := baseNames(docs)
	want := []string{"a.json", "b.JSON"}
	if len(got) != len(want) {
		t.Fatalf("Scan() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Scan()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestScanUnpacksArchives(t *testing.T) {
	dir := t.TempDir()
	writeZip(t, filepath.Join(dir, "batch.zip"), map[string]string{
		"nested/doc1.json": `{"source":"telegramMiner"}`,
		"doc2.json":        `{"source":"telegram"}`,
		"readme.txt":       "skip me",
	})

	docs, err := NewScanner(nil).Scan(dir)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	got := baseNames(docs)
	if len(got) != 2 {
		t.Fatalf("len(docs) = %v, want 2 (%v)", len(got), got)
	}
	if got[0] != "doc1.json" || got[1] != "doc2.json" {
		t.Errorf("Scan() = %v, want [doc1.json doc2.json]", got)
	}

	// Entries are flattened into the per-archive directory.
	for _, doc := range docs {
		if filepath.Dir(doc) != filepath.Join(dir, "batch") {
			t.Errorf("extracted to %v, want %v", filepath.Dir(doc), filepath.Join(dir, "batch"))
		}
	}
}

func TestScanMislabeledJSONArchive(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "actually-json.zip"), `{"source":"telegramMiner","chats":[]}`)

	docs, err := NewScanner(nil).Scan(dir)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(docs) != 1 || filepath.Base(docs[0]) != "actually-json.zip" {
		t.Errorf("Scan() = %v, want the mislabeled file itself", docs)
	}
}

func TestScanCorruptArchiveSkipped(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "bad.zip"), "not a zip, not json")
	writeFile(t, filepath.Join(dir, "good.json"), `{}`)

	docs, err := NewScanner(nil).Scan(dir)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(docs) != 1 || filepath.Base(docs[0]) != "good.json" {
		t.Errorf("Scan() = %v, want only good.json", docs)
	}
}
