package format

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveExtensions(t *testing.T) {
	tests := []struct {
		token string
		want  Format
	}{
		{"pdf", PDF},
		{".pdf", PDF},
		{"PDF", PDF},
		{".DocX", DOCX},
		{"jpeg", JPEG},
		{"md", MD},
		{"searchable_pdf", SearchablePDF},
	}
	for _, tt := range tests {
		got, err := Resolve(tt.token)
		require.NoError(t, err, "token %q", tt.token)
		assert.Equal(t, tt.want, got, "token %q", tt.token)
	}
}

func TestResolveMIME(t *testing.T) {
	tests := []struct {
		token string
		want  Format
	}{
		{"application/pdf", PDF},
		{"image/png", PNG},
		{"text/plain; charset=utf-8", TXT},
		{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", DOCX},
	}
	for _, tt := range tests {
		got, err := Resolve(tt.token)
		require.NoError(t, err, "token %q", tt.token)
		assert.Equal(t, tt.want, got, "token %q", tt.token)
	}
}

func TestResolveUnsupported(t *testing.T) {
	for _, token := range []string{"xyz", "exe", "application/zip", ""} {
		_, err := Resolve(token)
		assert.ErrorIs(t, err, ErrUnsupportedFormat, "token %q", token)
	}
}

func TestValidTargets(t *testing.T) {
	ts := ValidTargets(PDF)
	assert.Contains(t, ts, DOCX)
	assert.Contains(t, ts, SearchablePDF)
	assert.NotContains(t, ts, PDF)

	assert.Equal(t, []Format{PDF}, ValidTargets(DOCX))
	assert.Empty(t, ValidTargets(SearchablePDF))
	assert.Empty(t, ValidTargets(Format("xyz")))
}

func TestCanConvert(t *testing.T) {
	assert.True(t, CanConvert(PDF, DOCX))
	assert.True(t, CanConvert(MD, PDF))
	assert.False(t, CanConvert(DOCX, XLSX))
	assert.False(t, CanConvert(SearchablePDF, PDF))
}

func TestEverySourceHasTargets(t *testing.T) {
	for _, src := range Sources() {
		assert.NotEmpty(t, ValidTargets(src), "source %s has no targets", src)
	}
}

func TestExt(t *testing.T) {
	assert.Equal(t, "pdf", Ext(SearchablePDF))
	assert.Equal(t, "docx", Ext(DOCX))
	assert.Equal(t, "jpg", Ext(JPG))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/pdf", ContentType(PDF))
	assert.Equal(t, "application/pdf", ContentType(SearchablePDF))
	assert.Equal(t, "image/jpeg", ContentType(JPG))
	assert.Equal(t, "image/jpeg", ContentType(JPEG))
	assert.Equal(t, "application/octet-stream", ContentType(Format("xyz")))
}

func TestDetect(t *testing.T) {
	dir := t.TempDir()

	pdfPath := filepath.Join(dir, "noext")
	require.NoError(t, os.WriteFile(pdfPath, []byte("%PDF-1.4\n%fake\n"), 0o644))
	got, err := Detect(pdfPath)
	require.NoError(t, err)
	assert.Equal(t, PDF, got)

	pngPath := filepath.Join(dir, "img")
	pngHeader := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}
	require.NoError(t, os.WriteFile(pngPath, pngHeader, 0o644))
	got, err = Detect(pngPath)
	require.NoError(t, err)
	assert.Equal(t, PNG, got)
}
