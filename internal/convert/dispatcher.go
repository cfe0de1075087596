package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/ah-its-andy/docconvert/internal/config"
	"github.com/ah-its-andy/docconvert/internal/format"
	"github.com/ah-its-andy/docconvert/internal/runner"
	"go.uber.org/zap"
)

var (
	// ErrUnsupportedPair is returned before any external process is spawned
	// when no strategy exists for a (from, to) pair.
	ErrUnsupportedPair = errors.New("unsupported conversion pair")

	// ErrExternalTool covers nonzero exits and the zero-exit-but-no-output
	// case some tools produce on partial failure.
	ErrExternalTool = errors.New("external tool failed")
)

// Runner abstracts external process invocation so tests can count and fake
// tool spawns.
type Runner interface {
	Run(ctx context.Context, cmd runner.Command) (runner.Output, error)
}

// Pair keys the strategy table.
type Pair struct {
	From format.Format
	To   format.Format
}

// Request describes one conversion.
type Request struct {
	InputPath  string
	OutputPath string // final path the strategy must produce
	From       format.Format
	To         format.Format
	Quality    int    // 1 (low) .. 3 (high)
	WorkDir    string // scratch directory for intermediate files
}

// Strategy shapes the command line for one family of conversions and places
// the result at Request.OutputPath. It never transforms bytes itself.
type Strategy interface {
	Name() string
	Convert(ctx context.Context, req Request) error
}

type strategyFunc struct {
	name string
	fn   func(ctx context.Context, req Request) error
}

func (s strategyFunc) Name() string { return s.name }
func (s strategyFunc) Convert(ctx context.Context, req Request) error {
	return s.fn(ctx, req)
}

// Dispatcher selects and invokes the external converter for a format pair.
type Dispatcher struct {
	cfg   *config.Config
	run   Runner
	log   *zap.SugaredLogger
	table map[Pair]Strategy
}

func NewDispatcher(cfg *config.Config, run Runner, log *zap.SugaredLogger) *Dispatcher {
	d := &Dispatcher{cfg: cfg, run: run, log: log, table: map[Pair]Strategy{}}

	office := strategyFunc{"office-to-pdf", d.officeToPDF}
	for _, src := range []format.Format{
		format.DOC, format.DOCX, format.XLS, format.XLSX,
		format.PPT, format.PPTX, format.TXT,
	} {
		d.table[Pair{src, format.PDF}] = office
	}

	for _, dst := range []format.Format{format.DOCX, format.XLSX, format.PPTX} {
		d.table[Pair{format.PDF, dst}] = strategyFunc{"pdf-to-office", d.pdfToOffice}
	}

	raster := strategyFunc{"pdf-to-image", d.pdfToImage}
	d.table[Pair{format.PDF, format.JPG}] = raster
	d.table[Pair{format.PDF, format.PNG}] = raster

	d.table[Pair{format.PDF, format.SearchablePDF}] = strategyFunc{"pdf-ocr", d.ocrPDF}

	img := strategyFunc{"image-to-pdf", d.imageToPDF}
	d.table[Pair{format.JPG, format.PDF}] = img
	d.table[Pair{format.JPEG, format.PDF}] = img
	d.table[Pair{format.PNG, format.PDF}] = img

	d.table[Pair{format.MD, format.PDF}] = strategyFunc{"markdown-to-pdf", d.markdownToPDF}

	return d
}

// Supports reports whether a strategy exists for the pair.
func (d *Dispatcher) Supports(from, to format.Format) bool {
	_, ok := d.table[Pair{from, to}]
	return ok
}

// Pairs returns every pair the dispatcher carries a strategy for.
func (d *Dispatcher) Pairs() []Pair {
	out := make([]Pair, 0, len(d.table))
	for p := range d.table {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}

// Convert runs the strategy for the pair and validates that a nonzero-size
// output file was produced. Missing or empty output is an external tool
// failure regardless of the tool's exit code.
func (d *Dispatcher) Convert(ctx context.Context, req Request) (string, error) {
	strat, ok := d.table[Pair{req.From, req.To}]
	if !ok {
		return "", fmt.Errorf("%w: %s -> %s", ErrUnsupportedPair, req.From, req.To)
	}
	if req.Quality < 1 || req.Quality > 3 {
		req.Quality = 2
	}

	d.log.Infow("converting",
		"strategy", strat.Name(), "from", req.From, "to", req.To,
		"quality", req.Quality, "input", req.InputPath)

	if err := strat.Convert(ctx, req); err != nil {
		os.Remove(req.OutputPath)
		if errors.Is(err, runner.ErrTimeout) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ErrExternalTool, err)
	}

	fi, err := os.Stat(req.OutputPath)
	if err != nil {
		return "", fmt.Errorf("%w: no output produced at %s", ErrExternalTool, req.OutputPath)
	}
	if fi.Size() == 0 {
		os.Remove(req.OutputPath)
		return "", fmt.Errorf("%w: empty output at %s", ErrExternalTool, req.OutputPath)
	}
	return req.OutputPath, nil
}

// moveFile renames src to dst, falling back to copy for cross-device moves.
func moveFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	if err := out.Sync(); err != nil {
		return err
	}
	return os.Remove(src)
}
