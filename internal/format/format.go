package format

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Format is a canonical document type identifier.
type Format string

const (
	PDF  Format = "pdf"
	DOC  Format = "doc"
	DOCX Format = "docx"
	XLS  Format = "xls"
	XLSX Format = "xlsx"
	PPT  Format = "ppt"
	PPTX Format = "pptx"
	JPG  Format = "jpg"
	JPEG Format = "jpeg"
	PNG  Format = "png"
	TXT  Format = "txt"
	MD   Format = "md"

	// SearchablePDF is a target-only format: the source PDF is rasterized and
	// run through OCR so the output carries a text layer. The output file
	// extension is still "pdf".
	SearchablePDF Format = "searchable_pdf"
)

var ErrUnsupportedFormat = errors.New("unsupported format")

// byExtension maps lowercase extensions (no dot) to canonical formats.
var byExtension = map[string]Format{
	"pdf":  PDF,
	"doc":  DOC,
	"docx": DOCX,
	"xls":  XLS,
	"xlsx": XLSX,
	"ppt":  PPT,
	"pptx": PPTX,
	"jpg":  JPG,
	"jpeg": JPEG,
	"png":  PNG,
	"txt":  TXT,
	"md":   MD,

	"searchable_pdf": SearchablePDF,
}

// byMIME maps MIME tokens to canonical formats.
var byMIME = map[string]Format{
	"application/pdf":    PDF,
	"application/msword": DOC,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   DOCX,
	"application/vnd.ms-excel":                                                  XLS,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         XLSX,
	"application/vnd.ms-powerpoint":                                             PPT,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": PPTX,
	"image/jpeg":    JPG,
	"image/png":     PNG,
	"text/plain":    TXT,
	"text/markdown": MD,
}

// targets declares, per source format, the set of valid conversion targets.
// The dispatcher must carry a strategy for every pair listed here.
var targets = map[Format][]Format{
	PDF:  {DOCX, XLSX, PPTX, JPG, PNG, SearchablePDF},
	DOC:  {PDF},
	DOCX: {PDF},
	XLS:  {PDF},
	XLSX: {PDF},
	PPT:  {PDF},
	PPTX: {PDF},
	JPG:  {PDF},
	JPEG: {PDF},
	PNG:  {PDF},
	TXT:  {PDF},
	MD:   {PDF},
}

// Resolve maps a file extension or MIME token to a canonical format.
// The token may carry a leading dot and is matched case-insensitively;
// MIME parameters ("; charset=...") are ignored.
func Resolve(token string) (Format, error) {
	t := strings.ToLower(strings.TrimSpace(token))
	t = strings.TrimPrefix(t, ".")
	if f, ok := byExtension[t]; ok {
		return f, nil
	}
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	if f, ok := byMIME[t]; ok {
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, token)
}

// Detect sniffs the file content and resolves it to a canonical format.
// Used as the last step of the from_format precedence rule
// (explicit parameter > filename extension > content sniffing).
func Detect(path string) (Format, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "", fmt.Errorf("sniff %s: %w", path, err)
	}
	for m := mt; m != nil; m = m.Parent() {
		if f, ok := byMIME[m.String()]; ok {
			return f, nil
		}
		if f, ok := byExtension[strings.TrimPrefix(m.Extension(), ".")]; ok {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: detected %s", ErrUnsupportedFormat, mt.String())
}

// ValidTargets returns the declared conversion targets for a source format.
// The returned slice is a copy.
func ValidTargets(f Format) []Format {
	ts, ok := targets[f]
	if !ok {
		return nil
	}
	out := make([]Format, len(ts))
	copy(out, ts)
	return out
}

// CanConvert reports whether (from, to) is a declared conversion pair.
func CanConvert(from, to Format) bool {
	for _, t := range targets[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Sources returns all formats accepted as conversion sources, sorted.
func Sources() []Format {
	out := make([]Format, 0, len(targets))
	for f := range targets {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Ext returns the output file extension (without dot) for a target format.
func Ext(f Format) string {
	if f == SearchablePDF {
		return "pdf"
	}
	return string(f)
}

// ContentType returns the MIME type to serve for a format, falling back to
// a generic binary stream.
func ContentType(f Format) string {
	switch f {
	case JPEG:
		return "image/jpeg"
	case SearchablePDF:
		return "application/pdf"
	}
	for m, ff := range byMIME {
		if ff == f {
			return m
		}
	}
	return "application/octet-stream"
}
