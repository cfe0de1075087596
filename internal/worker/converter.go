package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ah-its-andy/docconvert/internal/convert"
	"github.com/ah-its-andy/docconvert/internal/format"
	"github.com/ah-its-andy/docconvert/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Converter ingests files dropped into the watch directory: it registers the
// file in the store like an uploaded one and converts it to PDF through the
// same dispatcher the HTTP API uses.
type Converter struct {
	store   storage.Store
	disp    *convert.Dispatcher
	quality int
	log     *zap.SugaredLogger
}

func NewConverter(store storage.Store, disp *convert.Dispatcher, quality int, log *zap.SugaredLogger) *Converter {
	return &Converter{store: store, disp: disp, quality: quality, log: log}
}

func (c *Converter) Convert(ctx context.Context, path string) error {
	name := filepath.Base(path)
	from, err := format.Resolve(filepath.Ext(name))
	if err != nil {
		return fmt.Errorf("inbox file %s: %w", name, err)
	}
	to := format.PDF
	if from == format.PDF {
		to = format.SearchablePDF
	}
	if !format.CanConvert(from, to) {
		return fmt.Errorf("inbox file %s: %w", name, format.ErrUnsupportedFormat)
	}

	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open inbox file: %w", err)
	}
	defer src.Close()

	fileID := uuid.NewString()
	uploadPath, err := c.store.StoreUpload(fileID, name, src)
	if err != nil {
		return err
	}

	meta := &storage.Metadata{
		FileID:       fileID,
		OriginalName: name,
		UploadedName: name,
		FromFormat:   string(from),
		ToFormat:     string(to),
		Quality:      c.quality,
		Status:       storage.StatusRunning,
		UploadTime:   time.Now(),
	}
	if err := c.store.SaveMetadata(meta); err != nil {
		return err
	}

	resultDir, err := c.store.ResultDir(fileID)
	if err != nil {
		return err
	}
	outputName := name[:len(name)-len(filepath.Ext(name))] + "." + format.Ext(to)

	resultPath, err := c.disp.Convert(ctx, convert.Request{
		InputPath:  uploadPath,
		OutputPath: filepath.Join(resultDir, outputName),
		From:       from,
		To:         to,
		Quality:    c.quality,
		WorkDir:    filepath.Dir(uploadPath),
	})
	if err != nil {
		meta.Status = storage.StatusFailed
		meta.Error = err.Error()
		if serr := c.store.SaveMetadata(meta); serr != nil {
			c.log.Errorw("save failed metadata", "file_id", fileID, "error", serr)
		}
		return fmt.Errorf("convert inbox file %s: %w", name, err)
	}

	fi, err := os.Stat(resultPath)
	if err != nil {
		return err
	}
	meta.Status = storage.StatusSucceeded
	meta.OutputName = outputName
	meta.FileSize = fi.Size()
	meta.ConvertedTime = time.Now()
	if err := c.store.SaveMetadata(meta); err != nil {
		return err
	}

	c.log.Infow("inbox file converted",
		"file_id", fileID, "name", name, "from", from, "to", to)
	return nil
}
