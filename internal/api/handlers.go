package api

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ah-its-andy/docconvert/internal/convert"
	"github.com/ah-its-andy/docconvert/internal/format"
	"github.com/ah-its-andy/docconvert/internal/runner"
	"github.com/ah-its-andy/docconvert/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const timeLayout = "2006-01-02 15:04:05"

func (s *Server) handleIndex(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "running",
		"api_version": apiVersion,
		"endpoints": gin.H{
			"/api/convert":            "POST - convert an uploaded file",
			"/api/download/{file_id}": "GET - download a conversion result",
			"/api/formats":            "GET - list supported formats",
			"/api/system-check":       "GET - check directories and external tools",
			"/api/list-files":         "GET - list stored conversions",
		},
	})
}

func (s *Server) handleFormats(c *gin.Context) {
	out := make(map[string][]string)
	for _, src := range format.Sources() {
		ts := format.ValidTargets(src)
		names := make([]string, len(ts))
		for i, t := range ts {
			names[i] = string(t)
		}
		out[string(src)] = names
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleConvert(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeValidation, "no file provided")
		return
	}
	if fileHeader.Filename == "" {
		respondError(c, http.StatusBadRequest, CodeValidation, "no file selected")
		return
	}

	toParam := c.PostForm("to_format")
	if toParam == "" {
		respondError(c, http.StatusBadRequest, CodeValidation, "to_format is required")
		return
	}
	to, err := format.Resolve(toParam)
	if err != nil {
		status, code, msg := classify(err)
		respondError(c, status, code, msg)
		return
	}

	quality := 2
	if q := c.PostForm("quality"); q != "" {
		quality, err = strconv.Atoi(q)
		if err != nil || quality < 1 || quality > 3 {
			respondError(c, http.StatusBadRequest, CodeValidation, "quality must be an integer between 1 and 3")
			return
		}
	}

	uploadedName := filepath.Base(fileHeader.Filename)
	originalName := reconcileName(c.PostForm("original_filename"), uploadedName)

	src, err := fileHeader.Open()
	if err != nil {
		s.log.Errorw("open upload", "error", err)
		respondError(c, http.StatusBadRequest, CodeValidation, "could not read uploaded file")
		return
	}
	defer src.Close()

	fileID := uuid.NewString()
	uploadPath, err := s.store.StoreUpload(fileID, originalName, src)
	if err != nil {
		s.log.Errorw("store upload", "file_id", fileID, "error", err)
		respondError(c, http.StatusInternalServerError, CodeInternal, "could not store uploaded file")
		return
	}

	// the metadata record goes down before any further validation so the
	// sweep always covers the stored upload, accepted or not
	meta := &storage.Metadata{
		FileID:       fileID,
		OriginalName: originalName,
		UploadedName: uploadedName,
		ToFormat:     string(to),
		Quality:      quality,
		Status:       storage.StatusPending,
		UploadTime:   time.Now(),
	}
	if err := s.store.SaveMetadata(meta); err != nil {
		s.log.Errorw("save metadata", "file_id", fileID, "error", err)
		respondError(c, http.StatusInternalServerError, CodeInternal, "could not record metadata")
		return
	}

	from, err := s.resolveFrom(c.PostForm("from_format"), originalName, uploadPath)
	if err != nil {
		s.rejectConvert(c, meta, err)
		return
	}
	meta.FromFormat = string(from)

	// registry check comes before any external process runs
	if !format.CanConvert(from, to) {
		s.rejectConvert(c, meta, fmt.Errorf("%w: %s -> %s", convert.ErrUnsupportedPair, from, to))
		return
	}

	meta.Status = storage.StatusRunning
	if err := s.store.SaveMetadata(meta); err != nil {
		s.log.Errorw("save metadata", "file_id", fileID, "error", err)
	}

	// opportunistic cleanup alongside the timer-driven sweeper
	if s.sweeper != nil {
		go s.sweeper.SweepNow()
	}

	resultDir, err := s.store.ResultDir(fileID)
	if err != nil {
		s.log.Errorw("create result dir", "file_id", fileID, "error", err)
		respondError(c, http.StatusInternalServerError, CodeInternal, "could not prepare result storage")
		return
	}
	outputName := stripExt(originalName) + "." + format.Ext(to)

	resultPath, err := s.disp.Convert(c.Request.Context(), convert.Request{
		InputPath:  uploadPath,
		OutputPath: filepath.Join(resultDir, outputName),
		From:       from,
		To:         to,
		Quality:    quality,
		WorkDir:    filepath.Dir(uploadPath),
	})
	if err != nil {
		s.log.Errorw("conversion failed",
			"file_id", fileID, "from", from, "to", to, "error", err)
		s.rejectConvert(c, meta, err)
		return
	}

	fi, err := os.Stat(resultPath)
	if err != nil {
		s.log.Errorw("stat result", "file_id", fileID, "error", err)
		respondError(c, http.StatusInternalServerError, CodeInternal, "conversion result missing")
		return
	}

	now := time.Now()
	meta.Status = storage.StatusSucceeded
	meta.OutputName = outputName
	meta.FileSize = fi.Size()
	meta.ConvertedTime = now
	if err := s.store.SaveMetadata(meta); err != nil {
		s.log.Errorw("save metadata", "file_id", fileID, "error", err)
	}

	// aliased targets report their real container format
	responseTo := to
	if to == format.SearchablePDF {
		responseTo = format.PDF
	}

	s.log.Infow("conversion succeeded",
		"file_id", fileID, "name", originalName, "from", from, "to", to, "size", fi.Size())

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"file_id":        fileID,
		"original_name":  originalName,
		"from_format":    string(from),
		"to_format":      string(responseTo),
		"file_size":      fi.Size(),
		"result_url":     "/api/download/" + fileID,
		"converted_time": now.Format(timeLayout),
	})
}

func (s *Server) handleDownload(c *gin.Context) {
	id := c.Param("file_id")
	// the identifier must be one of our generated UUIDs, never a path fragment
	if _, err := uuid.Parse(id); err != nil {
		respondError(c, http.StatusNotFound, CodeNotFound, "file not found")
		return
	}

	meta, err := s.store.Metadata(id)
	if err != nil {
		respondError(c, http.StatusNotFound, CodeNotFound, "file not found or expired")
		return
	}
	path, err := s.store.ResultPath(id)
	if err != nil {
		respondError(c, http.StatusNotFound, CodeNotFound, "file not found or expired")
		return
	}

	downloadName := stripExt(meta.OriginalName) + filepath.Ext(meta.OutputName)
	encoded := url.PathEscape(downloadName)

	contentType := "application/octet-stream"
	if f, err := format.Resolve(meta.ToFormat); err == nil {
		contentType = format.ContentType(f)
	}

	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition",
		`attachment; filename="`+encoded+`"; filename*=UTF-8''`+encoded)
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.File(path)
}

func (s *Server) handleSystemCheck(c *gin.Context) {
	dirs := gin.H{}
	for name, dir := range map[string]string{
		"upload_dir":   s.cfg.UploadDir,
		"result_dir":   s.cfg.ResultDir,
		"metadata_dir": s.cfg.MetadataDir,
	} {
		fi, err := os.Stat(dir)
		dirs[name] = gin.H{
			"path":     dir,
			"exists":   err == nil && fi.IsDir(),
			"writable": isWritable(dir),
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      "running",
		"directories": dirs,
		"tools":       runner.Available(s.cfg.ToolBins()...),
	})
}

func (s *Server) handleListFiles(c *gin.Context) {
	metas, err := s.store.List()
	if err != nil {
		s.log.Errorw("list files", "error", err)
		respondError(c, http.StatusInternalServerError, CodeInternal, "could not list files")
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": metas, "total": len(metas)})
}

// rejectConvert marks the job failed so the sweep reclaims the stored
// upload, then answers the client.
func (s *Server) rejectConvert(c *gin.Context, meta *storage.Metadata, err error) {
	meta.Status = storage.StatusFailed
	meta.Error = err.Error()
	if serr := s.store.SaveMetadata(meta); serr != nil {
		s.log.Errorw("save failed metadata", "file_id", meta.FileID, "error", serr)
	}
	status, code, msg := classify(err)
	respondError(c, status, code, msg)
}

// resolveFrom applies the from_format precedence rule:
// explicit parameter > filename extension > content sniffing.
func (s *Server) resolveFrom(param, name, uploadPath string) (format.Format, error) {
	if param != "" {
		return format.Resolve(param)
	}
	if ext := filepath.Ext(name); ext != "" {
		if f, err := format.Resolve(ext); err == nil {
			return f, nil
		}
	}
	return format.Detect(uploadPath)
}

// reconcileName applies the client-provided display name but keeps the real
// extension of the uploaded file so format inference stays truthful.
func reconcileName(original, uploaded string) string {
	original = strings.TrimSpace(original)
	if original == "" {
		return uploaded
	}
	original = filepath.Base(original)
	upExt := strings.ToLower(filepath.Ext(uploaded))
	origExt := strings.ToLower(filepath.Ext(original))
	if upExt != "" && origExt != upExt {
		return stripExt(original) + upExt
	}
	return original
}

func stripExt(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func isWritable(dir string) bool {
	f, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return false
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return true
}
