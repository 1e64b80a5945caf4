package models

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// EncoderPath returns where the extracted encoder bundle directory lives.
func (g *Manager) EncoderPath(m Model) string {
	return filepath.Join(g.dir, m.EncoderDirname())
}

// EncoderExists reports whether the encoder bundle is present. The bundle
// is a directory, so presence means the directory exists and holds at
// least one entry.
func (g *Manager) EncoderExists(m Model) bool {
	entries, err := os.ReadDir(g.EncoderPath(m))
	return err == nil && len(entries) > 0
}

// DownloadEncoder fetches the encoder bundle archive and unpacks it into
// the models directory, then removes the archive.
func (g *Manager) DownloadEncoder(ctx context.Context, m Model, progress ProgressFunc) (string, error) {
	if err := os.MkdirAll(g.dir, 0755); err != nil {
		return "", fmt.Errorf("creating models dir: %w", err)
	}

	url := g.baseURL + "/" + m.EncoderZipName()
	g.log.Info().Str("model", m.Name).Str("url", url).Msg("downloading encoder bundle")

	zipPath := filepath.Join(g.dir, m.EncoderZipName()+".tmp")
	if err := g.fetch(ctx, url, zipPath, 0, progress); err != nil {
		return "", err
	}
	defer os.Remove(zipPath)

	g.log.Debug().Str("model", m.Name).Msg("extracting encoder bundle")
	if err := extractZip(zipPath, g.dir); err != nil {
		return "", err
	}

	path := g.EncoderPath(m)
	g.log.Info().Str("path", path).Msg("encoder bundle installed")
	return path, nil
}

// EnsureEncoder returns the path of the encoder bundle, downloading and
// extracting it if it is not already present.
func (g *Manager) EnsureEncoder(ctx context.Context, m Model, progress ProgressFunc) (string, error) {
	if g.EncoderExists(m) {
		return g.EncoderPath(m), nil
	}
	g.log.Info().Str("model", m.Name).Msg("encoder bundle not found locally, downloading")
	return g.DownloadEncoder(ctx, m, progress)
}

// extractZip unpacks an archive into targetDir, skipping entries that
// would escape it.
func extractZip(zipPath, targetDir string) error {
	archive, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("opening archive %s: %w", zipPath, err)
	}
	defer archive.Close()

	for _, f := range archive.File {
		if !filepath.IsLocal(f.Name) {
			continue
		}
		dest := filepath.Join(targetDir, f.Name)

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(dest, 0755); err != nil {
				return fmt.Errorf("creating %s: %w", dest, err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return fmt.Errorf("creating %s: %w", filepath.Dir(dest), err)
		}
		if err := extractZipFile(f, dest); err != nil {
			return err
		}
	}

	return nil
}

func extractZipFile(f *zip.File, dest string) error {
	in, err := f.Open()
	if err != nil {
		return fmt.Errorf("opening archive entry %s: %w", f.Name, err)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("extracting %s: %w", dest, err)
	}
	return nil
}
