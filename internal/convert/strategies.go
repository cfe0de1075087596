package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ah-its-andy/docconvert/internal/format"
	"github.com/ah-its-andy/docconvert/internal/runner"
)

// pdfImportFilters selects the LibreOffice import filter for PDF -> office
// conversions.
var pdfImportFilters = map[format.Format]string{
	format.DOCX: "writer_pdf_import",
	format.XLSX: "calc_pdf_import",
	format.PPTX: "impress_pdf_import",
}

// officeToPDF converts office documents and plain text via headless
// LibreOffice. soffice names its output after the input basename, so the
// result is moved to the requested path afterwards.
func (d *Dispatcher) officeToPDF(ctx context.Context, req Request) error {
	out, err := d.run.Run(ctx, runner.Command{
		Bin: d.cfg.SofficeBin,
		Args: []string{
			"--headless", "--convert-to", "pdf",
			"--outdir", req.WorkDir, req.InputPath,
		},
		Timeout: d.cfg.ConvertTimeout(),
	})
	if err != nil {
		return fmt.Errorf("soffice convert: %w (stderr: %s)", err, strings.TrimSpace(out.Stderr))
	}
	produced := filepath.Join(req.WorkDir, stripExt(filepath.Base(req.InputPath))+".pdf")
	return moveFile(produced, req.OutputPath)
}

// pdfToOffice converts a PDF into an editable office document using the
// matching LibreOffice PDF import filter.
func (d *Dispatcher) pdfToOffice(ctx context.Context, req Request) error {
	filter, ok := pdfImportFilters[req.To]
	if !ok {
		return fmt.Errorf("no pdf import filter for %s", req.To)
	}
	out, err := d.run.Run(ctx, runner.Command{
		Bin: d.cfg.SofficeBin,
		Args: []string{
			"--headless", "--infilter=" + filter,
			"--convert-to", string(req.To),
			"--outdir", req.WorkDir, req.InputPath,
		},
		Timeout: d.cfg.ConvertTimeout(),
	})
	if err != nil {
		return fmt.Errorf("soffice pdf import: %w (stderr: %s)", err, strings.TrimSpace(out.Stderr))
	}
	produced := filepath.Join(req.WorkDir, stripExt(filepath.Base(req.InputPath))+"."+string(req.To))
	return moveFile(produced, req.OutputPath)
}

// pdfToImage rasterizes the first page of a PDF. Quality maps to DPI:
// 100 per level, matching the resolution ladder of the original service.
func (d *Dispatcher) pdfToImage(ctx context.Context, req Request) error {
	flag := "-png"
	if req.To == format.JPG {
		flag = "-jpeg"
	}
	prefix := filepath.Join(req.WorkDir, "page")
	out, err := d.run.Run(ctx, runner.Command{
		Bin: d.cfg.PdftoppmBin,
		Args: []string{
			flag, "-r", strconv.Itoa(100 * req.Quality),
			"-singlefile", req.InputPath, prefix,
		},
		Timeout: d.cfg.ConvertTimeout(),
	})
	if err != nil {
		return fmt.Errorf("pdftoppm: %w (stderr: %s)", err, strings.TrimSpace(out.Stderr))
	}
	return moveFile(prefix+"."+string(req.To), req.OutputPath)
}

// ocrPDF rebuilds a PDF with a text layer: rasterize all pages at OCR
// resolution, then let tesseract emit a searchable PDF from the page list.
func (d *Dispatcher) ocrPDF(ctx context.Context, req Request) error {
	prefix := filepath.Join(req.WorkDir, "ocr")
	out, err := d.run.Run(ctx, runner.Command{
		Bin:     d.cfg.PdftoppmBin,
		Args:    []string{"-png", "-r", "300", req.InputPath, prefix},
		Timeout: d.cfg.ConvertTimeout(),
	})
	if err != nil {
		return fmt.Errorf("pdftoppm for ocr: %w (stderr: %s)", err, strings.TrimSpace(out.Stderr))
	}

	pages, err := filepath.Glob(prefix + "*.png")
	if err != nil || len(pages) == 0 {
		return fmt.Errorf("no rasterized pages under %s", req.WorkDir)
	}
	// pdftoppm zero-pads page numbers, lexical order is page order
	sort.Strings(pages)
	defer func() {
		for _, p := range pages {
			os.Remove(p)
		}
	}()

	listPath := filepath.Join(req.WorkDir, "ocr-pages.txt")
	if err := os.WriteFile(listPath, []byte(strings.Join(pages, "\n")+"\n"), 0o644); err != nil {
		return fmt.Errorf("write page list: %w", err)
	}
	defer os.Remove(listPath)

	outBase := filepath.Join(req.WorkDir, "searchable")
	tout, err := d.run.Run(ctx, runner.Command{
		Bin:     d.cfg.TesseractBin,
		Args:    []string{listPath, outBase, "-l", d.cfg.OCRLanguages, "pdf"},
		Timeout: d.cfg.ConvertTimeout(),
	})
	if err != nil {
		return fmt.Errorf("tesseract: %w (stderr: %s)", err, strings.TrimSpace(tout.Stderr))
	}
	return moveFile(outBase+".pdf", req.OutputPath)
}

// imageToPDF wraps an image into a PDF page via ImageMagick. Quality maps to
// JPEG compression inside the PDF stream.
func (d *Dispatcher) imageToPDF(ctx context.Context, req Request) error {
	compression := map[int]string{1: "60", 2: "80", 3: "95"}[req.Quality]
	out, err := d.run.Run(ctx, runner.Command{
		Bin:     d.cfg.MagickBin,
		Args:    []string{req.InputPath, "-quality", compression, req.OutputPath},
		Timeout: d.cfg.ConvertTimeout(),
	})
	if err != nil {
		return fmt.Errorf("imagemagick: %w (stderr: %s)", err, strings.TrimSpace(out.Stderr))
	}
	return nil
}

// markdownToPDF renders Markdown through pandoc.
func (d *Dispatcher) markdownToPDF(ctx context.Context, req Request) error {
	out, err := d.run.Run(ctx, runner.Command{
		Bin:     d.cfg.PandocBin,
		Args:    []string{req.InputPath, "-o", req.OutputPath},
		Timeout: d.cfg.ConvertTimeout(),
	})
	if err != nil {
		return fmt.Errorf("pandoc: %w (stderr: %s)", err, strings.TrimSpace(out.Stderr))
	}
	return nil
}

func stripExt(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
