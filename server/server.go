// Copyright 2026 The Innatives Authors
// SPDX-License-Identifier: Apache-2.0

// Package server exposes the geocoding pipeline over HTTP: upload a table,
// pick the location columns, follow the run's progress and download the
// augmented CSV.
package server

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"github.com/innatives/geocoding-app-v2/geocode"
	"github.com/innatives/geocoding-app-v2/pipeline"
	"github.com/innatives/geocoding-app-v2/tabular"
)

//go:embed templates
var templatesFS embed.FS

// downloadFilename is the fixed name of the augmented CSV download.
const downloadFilename = "geocoded_data.csv"

const defaultMaxUploadBytes = 10 << 20

// Options wires the server's collaborators.
type Options struct {
	// Resolver performs the geocoding calls.
	Resolver geocode.Resolver

	// Credential is the geocoding API key. Runs are refused without one,
	// unless the request carries its own api_key.
	Credential string

	// IDs mints upload identifiers. Defaults to UUIDs.
	IDs StringID

	// Delay is the pause between geocoding calls. Defaults to
	// pipeline.DefaultDelay.
	Delay time.Duration

	// H3Resolution, when positive, adds an H3 cell index column to results.
	H3Resolution int

	// MaxUploadBytes caps the size of one uploaded file. Defaults to 10MB.
	MaxUploadBytes int64
}

type Server struct {
	store          *Store
	ids            StringID
	resolver       geocode.Resolver
	credential     string
	delay          time.Duration
	h3Resolution   int
	maxUploadBytes int64
}

func NewServer(opts Options) *Server {
	ids := opts.IDs
	if ids == nil {
		ids = NewUUID()
	}

	delay := opts.Delay
	if delay == 0 {
		delay = pipeline.DefaultDelay
	}

	maxUploadBytes := opts.MaxUploadBytes
	if maxUploadBytes == 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}

	return &Server{
		store:          NewStore(),
		ids:            ids,
		resolver:       opts.Resolver,
		credential:     opts.Credential,
		delay:          delay,
		h3Resolution:   opts.H3Resolution,
		maxUploadBytes: maxUploadBytes,
	}
}

func (s *Server) engine() *gin.Engine {
	r := gin.Default()
	r.SetHTMLTemplate(template.Must(template.New("").ParseFS(templatesFS, "templates/*.html")))

	r.GET("/", s.indexView)
	r.POST("/api/uploads", s.createUpload)
	r.GET("/api/uploads/:id", s.getUpload)
	r.POST("/api/uploads/:id/geocode", s.startRun)
	r.GET("/api/uploads/:id/progress", s.getProgress)
	r.POST("/api/uploads/:id/cancel", s.cancelRun)
	r.GET("/api/uploads/:id/download", s.downloadResult)

	return r
}

// Run serves until the listener fails.
func (s *Server) Run(addr string, allowedOrigins []string) error {
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"*"},
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           corsHandler.Handler(s.engine()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return srv.ListenAndServe()
}

func (s *Server) indexView(ctx *gin.Context) {
	ctx.HTML(http.StatusOK, "index.html", nil)
}

func (s *Server) createUpload(ctx *gin.Context) {
	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, s.maxUploadBytes)

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("reading upload: %v", err)})

		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}
	defer f.Close()

	table, err := tabular.DecodeNamed(fileHeader.Filename, f)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	upload := newUpload(s.ids.Generate(), fileHeader.Filename, table)
	s.store.Add(upload)

	ctx.JSON(http.StatusCreated, upload.View())
}

func (s *Server) getUpload(ctx *gin.Context) {
	upload, ok := s.store.Get(ctx.Param("id"))
	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "upload not found"})

		return
	}

	ctx.JSON(http.StatusOK, upload.View())
}

// GeocodeRequest selects the location columns for a run. A non-empty
// api_key overrides the server credential for this run only.
type GeocodeRequest struct {
	AddressColumn string `json:"address_column"`
	CityColumn    string `json:"city_column"`
	CountryColumn string `json:"country_column"`
	APIKey        string `json:"api_key"`
}

func (s *Server) startRun(ctx *gin.Context) {
	upload, ok := s.store.Get(ctx.Param("id"))
	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "upload not found"})

		return
	}

	var req GeocodeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	columns := pipeline.Columns{
		Address: req.AddressColumn,
		City:    req.CityColumn,
		Country: req.CountryColumn,
	}

	if columns.Empty() {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": pipeline.ErrNoColumns.Error()})

		return
	}

	credential := s.credential
	if req.APIKey != "" {
		credential = req.APIKey
	}

	if credential == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": pipeline.ErrNoCredential.Error()})

		return
	}

	runCtx, err := upload.begin(context.Background())
	if err != nil {
		ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})

		return
	}

	go s.runGeocoding(runCtx, upload, columns, credential)

	ctx.JSON(http.StatusAccepted, gin.H{"id": upload.ID, "status": upload.Status()})
}

func (s *Server) runGeocoding(ctx context.Context, upload *Upload, columns pipeline.Columns, credential string) {
	p := &pipeline.Processor{
		Resolver:     s.resolver,
		Delay:        s.delay,
		H3Resolution: s.h3Resolution,
		OnProgress:   upload.setFraction,
	}

	result, tally, err := p.Run(ctx, upload.Table(), columns, credential)
	switch {
	case err == nil:
		upload.complete(result, tally)
	case errors.Is(err, context.Canceled):
		upload.markCanceled(result, tally)
	default:
		log.Printf("geocoding run %s failed: %v", upload.ID, err)
		upload.fail(err.Error())
	}
}

func (s *Server) getProgress(ctx *gin.Context) {
	upload, ok := s.store.Get(ctx.Param("id"))
	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "upload not found"})

		return
	}

	view := upload.View()
	ctx.JSON(http.StatusOK, gin.H{
		"id":       view.ID,
		"status":   view.Status,
		"fraction": view.Fraction,
		"tally":    view.Tally,
		"error":    view.Error,
	})
}

func (s *Server) cancelRun(ctx *gin.Context) {
	upload, ok := s.store.Get(ctx.Param("id"))
	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "upload not found"})

		return
	}

	if !upload.requestCancel() {
		ctx.JSON(http.StatusConflict, gin.H{"error": "run is not in progress"})

		return
	}

	// The run unwinds asynchronously; clients poll progress until the
	// status turns CANCELED.
	ctx.JSON(http.StatusAccepted, gin.H{"id": upload.ID, "status": upload.Status()})
}

func (s *Server) downloadResult(ctx *gin.Context) {
	upload, ok := s.store.Get(ctx.Param("id"))
	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "upload not found"})

		return
	}

	result, ok := upload.Result()
	if !ok {
		ctx.JSON(http.StatusConflict, gin.H{"error": "no results available yet"})

		return
	}

	var buf bytes.Buffer
	if err := result.Encode(&buf); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.Header("Content-Disposition", `attachment; filename="`+downloadFilename+`"`)
	ctx.Data(http.StatusOK, "text/csv", buf.Bytes())
}
