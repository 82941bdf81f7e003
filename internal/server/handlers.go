package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ppiankov/judolscan/internal/extract"
	"github.com/ppiankov/judolscan/internal/model"
)

type textRequest struct {
	Text string `json:"text"`
}

type urlRequest struct {
	URL string `json:"url"`
}

type mediaRequest struct {
	URL string `json:"youtube_url"`
}

func (s *Server) index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "API Deteksi Iklan Judi Online aktif.",
		"profile": s.opts.Profile,
	})
}

func (s *Server) detectText(c *gin.Context) {
	var req textRequest
	if !bind(c, &req) {
		return
	}
	res, err := s.checker.CheckText(c.Request.Context(), req.Text)
	respond(c, res, err)
}

func (s *Server) detectImage(c *gin.Context) {
	file, _, ok := s.upload(c, "image")
	if !ok {
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	res, err := s.checker.CheckImage(c.Request.Context(), data)
	respond(c, res, err)
}

func (s *Server) detectVideo(c *gin.Context) {
	file, name, ok := s.upload(c, "video")
	if !ok {
		return
	}
	defer func() { _ = file.Close() }()

	res, err := s.checker.CheckVideo(c.Request.Context(), file, name)
	respond(c, res, err)
}

func (s *Server) detectURL(c *gin.Context) {
	var req urlRequest
	if !bind(c, &req) {
		return
	}
	res, err := s.checker.CheckURL(c.Request.Context(), req.URL)
	respond(c, res, err)
}

func (s *Server) detectMedia(c *gin.Context) {
	var req mediaRequest
	if !bind(c, &req) {
		return
	}
	res, err := s.checker.CheckMedia(c.Request.Context(), req.URL)
	respond(c, res, err)
}

func (s *Server) fetchWebpage(c *gin.Context) {
	page, err := s.checker.FetchWebpage(c.Request.Context(), c.Query("url"))
	if err != nil {
		fail(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"url":            page.URL,
		"final_url":      page.FinalURL,
		"content":        page.Text,
		"content_length": len([]rune(page.Text)),
	})
}

// upload opens a multipart file field within the upload cap
func (s *Server) upload(c *gin.Context, field string) (multipart.File, string, bool) {
	if c.Request.ContentLength > s.opts.MaxUploadBytes {
		fail(c, http.StatusRequestEntityTooLarge, fmt.Errorf("upload exceeds %d bytes", s.opts.MaxUploadBytes))
		return nil, "", false
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxUploadBytes)

	header, err := c.FormFile(field)
	if err != nil {
		uploadError(c, field, err)
		return nil, "", false
	}
	file, err := header.Open()
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return nil, "", false
	}
	return file, header.Filename, true
}

func uploadError(c *gin.Context, field string, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		fail(c, http.StatusRequestEntityTooLarge, err)
		return
	}
	fail(c, http.StatusBadRequest, model.NewInputError(field, "file is required"))
}

func bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		fail(c, http.StatusBadRequest, model.NewInputError("body", "invalid JSON: "+err.Error()))
		return false
	}
	return true
}

func respond(c *gin.Context, res interface{}, err error) {
	if err != nil {
		fail(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func fail(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": err.Error()})
}

// statusFor maps check errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case model.IsInputError(err):
		return http.StatusBadRequest
	case extract.IsBlocked(err), errors.Is(err, extract.ErrRobotsDisallowed):
		return http.StatusForbidden
	case errors.Is(err, model.ErrInsufficientContent):
		return http.StatusUnprocessableEntity
	case model.IsFetchError(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
