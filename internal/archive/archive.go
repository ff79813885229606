// Package archive serializes a portable content graph to a zip container
// and back. Layout: manifest.json with counts, items.json, assets.json,
// and one files/<codename> entry per asset binary. The rest of the
// toolkit treats this as an opaque bidirectional codec.
package archive

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/Enngage/kontent-ai-migration-toolkit/internal/migrate"
)

const manifestVersion = "1"

// Manifest describes an archive's contents.
type Manifest struct {
	Version string    `json:"version"`
	Created time.Time `json:"created"`
	Items   int       `json:"items"`
	Assets  int       `json:"assets"`
	Files   int       `json:"files"`
}

// WriteFile serializes the graph to path atomically: the archive is
// assembled in a temp file and renamed into place, so a crash mid-write
// never leaves a truncated archive behind.
func WriteFile(path string, data *migrate.Data) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-archive-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if err := Write(tmp, data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp to final: %w", err)
	}
	success = true
	return nil
}

// Write serializes the graph to w as a zip archive.
func Write(w io.Writer, data *migrate.Data) error {
	zw := zip.NewWriter(w)

	manifest := Manifest{
		Version: manifestVersion,
		Created: time.Now().UTC(),
		Items:   len(data.Items),
		Assets:  len(data.Assets),
	}

	if err := writeJSON(zw, "items.json", data.Items); err != nil {
		return err
	}
	if err := writeJSON(zw, "assets.json", data.Assets); err != nil {
		return err
	}

	for _, asset := range data.Assets {
		if len(asset.Binary) == 0 {
			continue
		}
		f, err := zw.Create("files/" + asset.Codename)
		if err != nil {
			return fmt.Errorf("create archive entry for '%s': %w", asset.Codename, err)
		}
		if _, err := f.Write(asset.Binary); err != nil {
			return fmt.Errorf("write binary for '%s': %w", asset.Codename, err)
		}
		manifest.Files++
	}

	if err := writeJSON(zw, "manifest.json", manifest); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}
	return nil
}

// ReadFile parses an archive from disk.
func ReadFile(path string) (*migrate.Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}
	return Read(bytes.NewReader(raw), int64(len(raw)))
}

// Read parses an archive. Archives without a files/ directory are valid:
// asset binaries are lazily materialized and may never have been fetched.
func Read(r io.ReaderAt, size int64) (*migrate.Data, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	data := &migrate.Data{}
	binaries := make(map[string][]byte)

	for _, f := range zr.File {
		switch {
		case f.Name == "items.json":
			if err := readJSON(f, &data.Items); err != nil {
				return nil, err
			}
		case f.Name == "assets.json":
			if err := readJSON(f, &data.Assets); err != nil {
				return nil, err
			}
		case f.Name == "manifest.json":
			// Counts are informational; content is authoritative.
		case len(f.Name) > len("files/") && f.Name[:len("files/")] == "files/":
			payload, err := readAll(f)
			if err != nil {
				return nil, err
			}
			binaries[f.Name[len("files/"):]] = payload
		}
	}

	for i := range data.Assets {
		if payload, ok := binaries[data.Assets[i].Codename]; ok {
			data.Assets[i].Binary = payload
		}
	}
	return data, nil
}

func writeJSON(zw *zip.Writer, name string, v any) error {
	f, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create archive entry %s: %w", name, err)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return nil
}

func readJSON(f *zip.File, v any) error {
	payload, err := readAll(f)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("decode %s: %w", f.Name, err)
	}
	return nil
}

func readAll(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open archive entry %s: %w", f.Name, err)
	}
	defer rc.Close()
	payload, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read archive entry %s: %w", f.Name, err)
	}
	return payload, nil
}
