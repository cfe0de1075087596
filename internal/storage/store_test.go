package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *DiskStore {
	t.Helper()
	base := t.TempDir()
	s, err := NewDiskStore(
		filepath.Join(base, "uploads"),
		filepath.Join(base, "results"),
		filepath.Join(base, "metadata"),
		zap.NewNop().Sugar(),
	)
	require.NoError(t, err)
	return s
}

func storeEntry(t *testing.T, s *DiskStore, uploadTime time.Time) *Metadata {
	t.Helper()
	id := uuid.NewString()
	_, err := s.StoreUpload(id, "report.docx", strings.NewReader("docx bytes"))
	require.NoError(t, err)

	resultDir, err := s.ResultDir(id)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(resultDir, "report.pdf"), []byte("%PDF fake"), 0o644))

	m := &Metadata{
		FileID:        id,
		OriginalName:  "report.docx",
		UploadedName:  "report.docx",
		FromFormat:    "docx",
		ToFormat:      "pdf",
		Quality:       2,
		Status:        StatusSucceeded,
		OutputName:    "report.pdf",
		FileSize:      9,
		UploadTime:    uploadTime,
		ConvertedTime: uploadTime,
	}
	require.NoError(t, s.SaveMetadata(m))
	return m
}

func TestStoreUploadKeepsBasenameOnly(t *testing.T) {
	s := newTestStore(t)
	path, err := s.StoreUpload("some-id", "../../evil.txt", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.uploadDir, "some-id", "evil.txt"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))
}

func TestMetadataRoundtrip(t *testing.T) {
	s := newTestStore(t)
	m := storeEntry(t, s, time.Now())

	got, err := s.Metadata(m.FileID)
	require.NoError(t, err)
	assert.Equal(t, m.OriginalName, got.OriginalName)
	assert.Equal(t, m.ToFormat, got.ToFormat)
	assert.Equal(t, m.Status, got.Status)

	_, err = s.Metadata(uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResultPath(t *testing.T) {
	s := newTestStore(t)
	m := storeEntry(t, s, time.Now())

	path, err := s.ResultPath(m.FileID)
	require.NoError(t, err)
	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, fi.Size())

	// result recorded in metadata but the file was deleted
	require.NoError(t, os.Remove(path))
	_, err = s.ResultPath(m.FileID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResultPathWithoutRecordedResult(t *testing.T) {
	s := newTestStore(t)
	m := &Metadata{
		FileID:     uuid.NewString(),
		Status:     StatusRunning,
		UploadTime: time.Now(),
	}
	require.NoError(t, s.SaveMetadata(m))
	_, err := s.ResultPath(m.FileID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList(t *testing.T) {
	s := newTestStore(t)
	older := storeEntry(t, s, time.Now().Add(-2*time.Hour))
	newer := storeEntry(t, s, time.Now())

	metas, err := s.List()
	require.NoError(t, err)
	require.Len(t, metas, 2)
	assert.Equal(t, newer.FileID, metas[0].FileID)
	assert.Equal(t, older.FileID, metas[1].FileID)
}

func TestSweepRemovesExpiredWithoutOrphans(t *testing.T) {
	s := newTestStore(t)
	expired := storeEntry(t, s, time.Now().Add(-25*time.Hour))
	fresh := storeEntry(t, s, time.Now().Add(-1*time.Hour))

	removed, err := s.Sweep(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	// expired: upload, result and metadata all gone
	_, err = s.Metadata(expired.FileID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = os.Stat(filepath.Join(s.uploadDir, expired.FileID))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(s.resultDir, expired.FileID))
	assert.True(t, os.IsNotExist(err))

	// fresh entry untouched
	_, err = s.Metadata(fresh.FileID)
	require.NoError(t, err)
	_, err = s.ResultPath(fresh.FileID)
	require.NoError(t, err)
}

func TestSweeperSweepNow(t *testing.T) {
	s := newTestStore(t)
	expired := storeEntry(t, s, time.Now().Add(-48*time.Hour))

	sw := NewSweeper(s, 24*time.Hour, time.Hour, zap.NewNop().Sugar())
	sw.SweepNow()

	_, err := s.Metadata(expired.FileID)
	assert.ErrorIs(t, err, ErrNotFound)
}
