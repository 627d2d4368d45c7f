package screenshot

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
)

const archiveDirName = "archives"

// ArchiveResult describes one monthly archive run.
type ArchiveResult struct {
	Path  string // empty when nothing was archived
	Month string // YYYY-MM
	Files int
}

// ArchivePreviousMonth zips every capture from the month before now into
// <base>/archives/YYYY-MM.zip and removes the originals. It does nothing
// before afterDay of the month, when the archive already exists, or when the
// month has no captures.
func (m *Manager) ArchivePreviousMonth(afterDay int) (ArchiveResult, error) {
	now := m.now()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	prev := first.AddDate(0, 0, -1)
	res := ArchiveResult{Month: prev.Format("2006-01")}

	if now.Day() < afterDay {
		return res, nil
	}
	archivePath := filepath.Join(m.baseDir, archiveDirName, res.Month+".zip")
	if _, err := os.Stat(archivePath); err == nil {
		return res, nil
	}

	files, err := m.monthFiles(prev.Year(), prev.Month())
	if err != nil {
		return res, err
	}
	if len(files) == 0 {
		return res, nil
	}

	if err := writeZip(archivePath, m.baseDir, files); err != nil {
		return res, err
	}
	for _, f := range files {
		if err := os.Remove(filepath.Join(m.baseDir, f)); err != nil {
			slog.Warn("remove archived screenshot", "file", f, "error", err)
		}
	}
	res.Path, res.Files = archivePath, len(files)
	slog.Info("screenshots archived", "month", res.Month, "files", res.Files, "archive", archivePath)
	return res, nil
}

// monthFiles lists captures dated in year/month as slash-separated paths
// relative to the base directory.
func (m *Manager) monthFiles(year int, month time.Month) ([]string, error) {
	projects, err := os.ReadDir(m.baseDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list screenshot projects: %w", err)
	}

	var out []string
	for _, p := range projects {
		if !p.IsDir() || p.Name() == archiveDirName {
			continue
		}
		entries, err := os.ReadDir(filepath.Join(m.baseDir, p.Name()))
		if err != nil {
			return nil, fmt.Errorf("list screenshots of %s: %w", p.Name(), err)
		}
		for _, e := range entries {
			if e.IsDir() || !isImage(e.Name()) {
				continue
			}
			datePart, _, _ := strings.Cut(e.Name(), "_")
			d, err := time.Parse("2006-01-02", datePart)
			if err != nil || d.Year() != year || d.Month() != month {
				continue
			}
			out = append(out, path.Join(p.Name(), e.Name()))
		}
	}
	return out, nil
}

func isImage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

// writeZip stores files (relative to base) in a deflated archive at dst. A
// failed run leaves no file at dst, so the next run retries.
func writeZip(dst, base string, files []string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create archive directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	tmpName := tmp.Name()
	fail := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}

	zw := zip.NewWriter(tmp)
	for _, name := range files {
		if err := addFile(zw, base, name); err != nil {
			return fail(err)
		}
	}
	if err := zw.Close(); err != nil {
		return fail(fmt.Errorf("finish archive: %w", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close archive: %w", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("move archive into place: %w", err)
	}
	return nil
}

func addFile(zw *zip.Writer, base, name string) error {
	src, err := os.Open(filepath.Join(base, filepath.FromSlash(name)))
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer src.Close()
	info, err := src.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", name, err)
	}
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("zip header %s: %w", name, err)
	}
	hdr.Name = name
	hdr.Method = zip.Deflate
	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("add %s: %w", name, err)
	}
	if _, err := io.Copy(w, src); err != nil {
		return fmt.Errorf("compress %s: %w", name, err)
	}
	return nil
}
