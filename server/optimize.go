package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skryldev/webtools/core"
	"github.com/Skryldev/webtools/utils"
)

// multipartOverhead is the allowance for boundaries and part headers on top
// of the file itself when the body length is unknown up front.
const multipartOverhead = 1 << 20

// Response headers describing the optimization.
const (
	HeaderOriginalSize     = "X-Original-Size"
	HeaderOptimizedSize    = "X-Optimized-Size"
	HeaderSizeReduction    = "X-Size-Reduction"
	HeaderCompressionRatio = "X-Compression-Ratio"
	HeaderFormat           = "X-Format"
	HeaderOriginalFormat   = "X-Original-Format"
)

// handleOptimize accepts multipart fields image, format and quality and
// answers with the optimized bytes.
func (s *Server) handleOptimize(c echo.Context) error {
	req := c.Request()
	limit := s.cfg.Limits.MaxUploadBytes

	if req.ContentLength > limit {
		return httpError(http.StatusRequestEntityTooLarge, MsgTooLarge,
			fmt.Errorf("content-length %d exceeds %d", req.ContentLength, limit))
	}
	req.Body = http.MaxBytesReader(c.Response(), req.Body, limit+multipartOverhead)

	fh, err := c.FormFile("image")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return httpError(http.StatusRequestEntityTooLarge, MsgTooLarge, err)
		}
		return httpError(http.StatusBadRequest, MsgNoImage, err)
	}
	if fh.Size > limit {
		return httpError(http.StatusRequestEntityTooLarge, MsgTooLarge,
			fmt.Errorf("file size %d exceeds %d", fh.Size, limit))
	}

	contentType := fh.Header.Get(echo.HeaderContentType)
	if !core.IsImageContentType(contentType) {
		return httpError(http.StatusBadRequest, MsgInvalidFileType,
			fmt.Errorf("declared type %q", contentType))
	}

	f, err := fh.Open()
	if err != nil {
		return httpError(http.StatusInternalServerError, MsgProcessingFailed, err)
	}
	defer f.Close()

	data, err := utils.ReadAllLimited(req.Context(), f, limit, s.cfg.Limits.ChunkSize)
	if err != nil {
		if errors.Is(err, utils.ErrLimitExceeded) {
			return httpError(http.StatusRequestEntityTooLarge, MsgTooLarge, err)
		}
		return httpError(http.StatusInternalServerError, MsgProcessingFailed, err)
	}

	res, err := s.opt.Optimize(req.Context(), core.OptimizationRequest{
		Data:         data,
		ContentType:  contentType,
		Filename:     fh.Filename,
		TargetFormat: core.ResolveFormat(c.FormValue("format")),
		Quality:      core.ParseQuality(c.FormValue("quality")),
	})
	if err != nil {
		return optimizeError(err)
	}

	h := c.Response().Header()
	h.Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, res.Filename))
	h.Set(HeaderOriginalSize, strconv.FormatInt(res.OriginalSize, 10))
	h.Set(HeaderOptimizedSize, strconv.FormatInt(res.OptimizedSize, 10))
	h.Set(HeaderSizeReduction, strconv.Itoa(res.ReductionPercent)+"%")
	h.Set(HeaderCompressionRatio, res.CompressionRatio)
	h.Set(HeaderFormat, string(res.Format))
	h.Set(HeaderOriginalFormat, res.OriginalFormat)
	h.Set(echo.HeaderCacheControl, "no-cache")
	return c.Blob(http.StatusOK, res.MimeType, res.Data)
}
