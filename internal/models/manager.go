package models

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// ProgressFunc receives download progress. total may be an estimate when
// the server does not report a content length.
type ProgressFunc func(downloaded, total int64)

// Manager downloads, verifies, and caches model artifacts under a local
// directory. The canonical path for a model is only ever populated by an
// atomic rename after its checksum has been verified, so a corrupt or
// partially-written file is never visible under the canonical name.
type Manager struct {
	dir     string
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewManager creates a Manager rooted at dir.
func NewManager(dir string, log zerolog.Logger) *Manager {
	return &Manager{
		dir:     dir,
		baseURL: BaseURL,
		client:  &http.Client{},
		log:     log,
	}
}

// Path returns where the model artifact lives (or would live) on disk.
func (g *Manager) Path(m Model) string {
	return filepath.Join(g.dir, m.Filename)
}

// Exists reports whether the model artifact is present locally.
func (g *Manager) Exists(m Model) bool {
	info, err := os.Stat(g.Path(m))
	return err == nil && info.Size() > 0
}

// Verify compares the artifact's SHA-1 digest against the catalog value.
// A missing file verifies false without error.
func (g *Manager) Verify(m Model) (bool, error) {
	path := g.Path(m)
	if _, err := os.Stat(path); err != nil {
		return false, nil
	}

	actual, err := fileSHA1(path)
	if err != nil {
		return false, err
	}
	return actual == m.SHA1, nil
}

// Download fetches the model artifact, reporting progress per chunk, and
// installs it under the canonical name once its checksum verifies. On a
// checksum mismatch the temp file is deleted and an error is returned.
func (g *Manager) Download(ctx context.Context, m Model, progress ProgressFunc) (string, error) {
	if err := os.MkdirAll(g.dir, 0755); err != nil {
		return "", fmt.Errorf("creating models dir: %w", err)
	}

	path := g.Path(m)
	url := g.baseURL + "/" + m.Filename
	g.log.Info().Str("model", m.Name).Str("url", url).Msg("downloading model")

	tmpPath := path + ".tmp"
	if err := g.fetch(ctx, url, tmpPath, m.SizeBytes(), progress); err != nil {
		return "", err
	}

	g.log.Debug().Str("model", m.Name).Msg("verifying checksum")
	actual, err := fileSHA1(tmpPath)
	if err != nil {
		os.Remove(tmpPath)
		return "", err
	}
	if actual != m.SHA1 {
		os.Remove(tmpPath)
		return "", fmt.Errorf("checksum mismatch for %s: expected %s, got %s", m.Filename, m.SHA1, actual)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("installing model file: %w", err)
	}

	g.log.Info().Str("model", m.Name).Str("path", path).Msg("model downloaded and verified")
	return path, nil
}

// Ensure returns the path of a verified local copy of the model,
// downloading it if absent and re-downloading it if the existing copy
// fails verification. Model acquisition is idempotent and self-healing.
func (g *Manager) Ensure(ctx context.Context, m Model, progress ProgressFunc) (string, error) {
	path := g.Path(m)

	if g.Exists(m) {
		ok, err := g.Verify(m)
		if err != nil {
			return "", err
		}
		if ok {
			return path, nil
		}
		g.log.Warn().Str("model", m.Name).Msg("model checksum mismatch, re-downloading")
		os.Remove(path)
	}

	g.log.Info().Str("model", m.Name).Str("size", m.SizeHuman()).Msg("model not found locally, downloading")
	return g.Download(ctx, m, progress)
}

// fetch streams url into dest, invoking progress per chunk. sizeHint is
// used as the total when the response carries no content length.
func (g *Manager) fetch(ctx context.Context, url, dest string, sizeHint int64, progress ProgressFunc) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building download request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("download failed: HTTP %d", resp.StatusCode)
	}

	total := resp.ContentLength
	if total <= 0 {
		total = sizeHint
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	pw := &progressWriter{writer: f, total: total, progress: progress}
	_, err = io.Copy(pw, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dest)
		return fmt.Errorf("writing %s: %w", dest, err)
	}

	return nil
}

// fileSHA1 computes the hex SHA-1 digest of a file, streamed in 8 KiB
// chunks so large models are never held in memory.
func fileSHA1(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	h := sha1.New()
	buf := make([]byte, 8192)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", path, err)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// progressWriter wraps an io.Writer and reports cumulative progress.
type progressWriter struct {
	writer   io.Writer
	total    int64
	written  int64
	progress ProgressFunc
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n, err := pw.writer.Write(p)
	pw.written += int64(n)
	if pw.progress != nil {
		pw.progress(pw.written, pw.total)
	}
	return n, err
}
