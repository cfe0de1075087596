package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DiskStore keeps uploads, results and metadata in three directories,
// one subdirectory (or JSON file) per file ID:
//
//	uploads/<file_id>/<original name>
//	results/<file_id>/<output name>
//	metadata/<file_id>.json
type DiskStore struct {
	uploadDir   string
	resultDir   string
	metadataDir string
	log         *zap.SugaredLogger
}

func NewDiskStore(uploadDir, resultDir, metadataDir string, log *zap.SugaredLogger) (*DiskStore, error) {
	for _, dir := range []string{uploadDir, resultDir, metadataDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return &DiskStore{
		uploadDir:   uploadDir,
		resultDir:   resultDir,
		metadataDir: metadataDir,
		log:         log,
	}, nil
}

func (s *DiskStore) StoreUpload(fileID, name string, r io.Reader) (string, error) {
	dir := filepath.Join(s.uploadDir, fileID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	// only the basename, the caller controls the rest of the path
	path := filepath.Join(dir, filepath.Base(name))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := f.Sync(); err != nil {
		return "", fmt.Errorf("sync upload: %w", err)
	}
	return path, nil
}

func (s *DiskStore) ResultDir(fileID string) (string, error) {
	dir := filepath.Join(s.resultDir, fileID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create result dir: %w", err)
	}
	return dir, nil
}

func (s *DiskStore) ResultPath(fileID string) (string, error) {
	m, err := s.Metadata(fileID)
	if err != nil {
		return "", err
	}
	if m.OutputName == "" {
		return "", fmt.Errorf("%w: no result recorded for %s", ErrNotFound, fileID)
	}
	path := filepath.Join(s.resultDir, fileID, m.OutputName)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, fileID)
	}
	return path, nil
}

func (s *DiskStore) SaveMetadata(m *Metadata) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	path := filepath.Join(s.metadataDir, m.FileID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

func (s *DiskStore) Metadata(fileID string) (*Metadata, error) {
	path := filepath.Join(s.metadataDir, fileID+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, fileID)
		}
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	m := &Metadata{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parse metadata %s: %w", fileID, err)
	}
	return m, nil
}

func (s *DiskStore) List() ([]*Metadata, error) {
	entries, err := os.ReadDir(s.metadataDir)
	if err != nil {
		return nil, fmt.Errorf("read metadata dir: %w", err)
	}
	out := make([]*Metadata, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		m, err := s.Metadata(strings.TrimSuffix(e.Name(), ".json"))
		if err != nil {
			s.log.Warnw("skipping unreadable metadata", "file", e.Name(), "error", err)
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadTime.After(out[j].UploadTime) })
	return out, nil
}

func (s *DiskStore) Sweep(cutoff time.Time) (int, error) {
	metas, err := s.List()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, m := range metas {
		if !m.UploadTime.Before(cutoff) {
			continue
		}
		// files first, metadata last, so a crashed sweep never leaves a
		// record pointing at deleted files unnoticed
		if err := os.RemoveAll(filepath.Join(s.uploadDir, m.FileID)); err != nil {
			s.log.Warnw("sweep: remove upload failed", "file_id", m.FileID, "error", err)
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.resultDir, m.FileID)); err != nil {
			s.log.Warnw("sweep: remove result failed", "file_id", m.FileID, "error", err)
			continue
		}
		if err := os.Remove(filepath.Join(s.metadataDir, m.FileID+".json")); err != nil {
			s.log.Warnw("sweep: remove metadata failed", "file_id", m.FileID, "error", err)
			continue
		}
		removed++
	}
	if removed > 0 {
		s.log.Infow("sweep removed expired files", "count", removed)
	}
	return removed, nil
}
