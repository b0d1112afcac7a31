package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Skryldev/webtools/digest"
	"github.com/Skryldev/webtools/ids"
	"github.com/Skryldev/webtools/password"
	"github.com/Skryldev/webtools/utils"
)

// TextInputName is reported as the file name when text was hashed.
const TextInputName = "input field"

var validate = validator.New(validator.WithRequiredStructEnabled())

// ── Hash ──────────────────────────────────────────────────────────────────────

type hashResponse struct {
	FileName  string `json:"fileName"`
	Algorithm string `json:"algorithm"`
	Hash      string `json:"hash"`
	Size      int64  `json:"size"`
	Matches   *bool  `json:"matches,omitempty"`
}

// handleHash hashes the multipart field file, or text when no file was sent,
// and optionally compares the digest against expected.
func (s *Server) handleHash(c echo.Context) error {
	req := c.Request()
	limit := s.cfg.Limits.MaxUploadBytes
	req.Body = http.MaxBytesReader(c.Response(), req.Body, limit+multipartOverhead)

	fh, err := c.FormFile("file")
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		return httpError(http.StatusRequestEntityTooLarge, MsgTooLarge, err)
	}

	algo, aerr := digest.ParseAlgorithm(c.FormValue("algorithm"))
	if aerr != nil {
		return httpError(http.StatusBadRequest, aerr.Error(), aerr)
	}

	resp := hashResponse{Algorithm: string(algo)}
	switch {
	case err == nil:
		if fh.Size > limit {
			return httpError(http.StatusRequestEntityTooLarge, MsgTooLarge, fmt.Errorf("file size %d", fh.Size))
		}
		f, err := fh.Open()
		if err != nil {
			return httpError(http.StatusInternalServerError, msgInternal, err)
		}
		defer f.Close()

		sum, n, err := digest.Sum(req.Context(), &utils.LimitedReader{R: f, Max: limit}, algo)
		if err != nil {
			if errors.Is(err, utils.ErrLimitExceeded) {
				return httpError(http.StatusRequestEntityTooLarge, MsgTooLarge, err)
			}
			return httpError(http.StatusInternalServerError, msgInternal, err)
		}
		resp.FileName, resp.Hash, resp.Size = fh.Filename, sum, n

	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		text := c.FormValue("text")
		if text == "" {
			return httpError(http.StatusBadRequest, MsgNothingToHash, nil)
		}
		sum, err := digest.SumBytes([]byte(text), algo)
		if err != nil {
			return httpError(http.StatusInternalServerError, msgInternal, err)
		}
		resp.FileName, resp.Hash, resp.Size = TextInputName, sum, int64(len(text))

	default:
		return httpError(http.StatusBadRequest, MsgNothingToHash, err)
	}

	if expected := c.FormValue("expected"); expected != "" {
		ok := digest.Match(resp.Hash, expected)
		resp.Matches = &ok
	}
	return c.JSON(http.StatusOK, resp)
}

// ── Password ──────────────────────────────────────────────────────────────────

type passwordRequest struct {
	Length                   *int `json:"length" validate:"omitnil,min=0,max=128"`
	Uppercase                bool `json:"uppercase"`
	Lowercase                bool `json:"lowercase"`
	Numbers                  bool `json:"numbers"`
	Symbols                  bool `json:"symbols"`
	ExcludeSimilarCharacters bool `json:"excludeSimilarCharacters"`
}

type passwordResponse struct {
	Password string `json:"password"`
	Length   int    `json:"length"`
}

func (s *Server) handlePassword(c echo.Context) error {
	var in passwordRequest
	if err := c.Bind(&in); err != nil {
		return httpError(http.StatusBadRequest, "Invalid request body", err)
	}
	if err := validate.Struct(in); err != nil {
		return httpError(http.StatusBadRequest,
			fmt.Sprintf("Password length must be between 0 and %d", s.cfg.Limits.MaxPasswordLength), err)
	}

	length := password.DefaultLength
	if in.Length != nil {
		length = *in.Length
	}
	gen := password.Generator{MaxLength: s.cfg.Limits.MaxPasswordLength}
	pw, err := gen.Generate(password.Options{
		Length:                   length,
		Uppercase:                in.Uppercase,
		Lowercase:                in.Lowercase,
		Numbers:                  in.Numbers,
		Symbols:                  in.Symbols,
		ExcludeSimilarCharacters: in.ExcludeSimilarCharacters,
	})
	switch {
	case errors.Is(err, password.ErrNoCharacterSet):
		return httpError(http.StatusBadRequest, password.ErrNoCharacterSet.Error(), err)
	case errors.Is(err, password.ErrInvalidLength):
		return httpError(http.StatusBadRequest,
			fmt.Sprintf("Password length must be between 0 and %d", s.cfg.Limits.MaxPasswordLength), err)
	case err != nil:
		return httpError(http.StatusInternalServerError, msgInternal, err)
	}
	return c.JSON(http.StatusOK, passwordResponse{Password: pw, Length: len(pw)})
}

// ── IDs ───────────────────────────────────────────────────────────────────────

type idsResponse struct {
	Kind string   `json:"kind"`
	IDs  []string `json:"ids"`
}

func (s *Server) handleIDs(c echo.Context) error {
	kind, err := ids.ParseKind(c.QueryParam("kind"))
	if err != nil {
		return httpError(http.StatusBadRequest, err.Error(), err)
	}

	count := 1
	if raw := strings.TrimSpace(c.QueryParam("count")); raw != "" {
		count, err = strconv.Atoi(raw)
		if err != nil {
			return httpError(http.StatusBadRequest, "count must be a number", err)
		}
	}

	out, err := ids.Generate(kind, count, s.cfg.Limits.MaxIDs)
	if err != nil {
		if errors.Is(err, ids.ErrInvalidCount) {
			return httpError(http.StatusBadRequest,
				fmt.Sprintf("count must be between 1 and %d", s.cfg.Limits.MaxIDs), err)
		}
		return httpError(http.StatusInternalServerError, msgInternal, err)
	}
	return c.JSON(http.StatusOK, idsResponse{Kind: string(kind), IDs: out})
}
