// Package api exposes the extraction pipeline over HTTP.
package api

import (
	"bytes"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"

	"github.com/insightdelivered/card-statement-extractor/internal/extractor"
	"github.com/insightdelivered/card-statement-extractor/internal/models"
	"github.com/insightdelivered/card-statement-extractor/internal/pipeline"
	"github.com/insightdelivered/card-statement-extractor/internal/writer"
)

// Version is reported by the health endpoint and in responses.
const Version = "1.0.0"

// ExtractResponse is the JSON response of the extract endpoints.
type ExtractResponse struct {
	Success   bool                    `json:"success"`
	Error     string                  `json:"error,omitempty"`
	Warning   string                  `json:"warning,omitempty"`
	RequestID string                  `json:"requestId,omitempty"`
	Movements []models.Movement       `json:"movements"`
	Documents []models.DocumentReport `json:"documents,omitempty"`
	Monthly   []models.MonthlySummary `json:"monthly,omitempty"`
	Stats     models.Stats            `json:"stats"`
	NoData    bool                    `json:"noData"`
	Columns   []string                `json:"columns,omitempty"`
	CSV       string                  `json:"csv,omitempty"`
	Filename  string                  `json:"filename,omitempty"`
	Version   string                  `json:"version,omitempty"`
}

// TextRequest carries page text that was already extracted by the client.
// A null page is treated as an empty page.
type TextRequest struct {
	Documents []TextDocument  `json:"documents"`
	Options   *models.Options `json:"options,omitempty"`
}

// TextDocument is one document of a TextRequest, its pages in order.
type TextDocument struct {
	Name  string    `json:"name"`
	Pages []*string `json:"pages"`
}

// Handler holds the HTTP handlers for the API.
type Handler struct {
	pipeline *pipeline.Pipeline
	defaults models.Options
	logger   *log.Logger
	now      func() time.Time
}

// NewHandler returns a Handler. defaults apply when a request does not set
// an option. A nil logger discards output.
func NewHandler(defaults models.Options, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Handler{
		pipeline: pipeline.New(logger),
		defaults: defaults,
		logger:   logger,
		now:      time.Now,
	}
}

// NewApp builds the fiber app with routes and middleware installed.
func NewApp(h *Handler, bodyLimitMB int) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "card-statement-extractor",
		BodyLimit:             bodyLimitMB << 20,
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				code = fe.Code
			}
			return writeError(c, code, err.Error())
		},
	})
	app.Use(recover.New())
	app.Use(h.requestLogger)
	h.Register(app)
	return app
}

// Register sets up the routes.
func (h *Handler) Register(app *fiber.App) {
	app.Get("/api/health", h.HandleHealth)
	app.Post("/api/extract", h.HandleExtract)
	app.Post("/api/extract/text", h.HandleExtractText)
}

func (h *Handler) requestLogger(c *fiber.Ctx) error {
	id := uuid.NewString()
	c.Locals("requestId", id)
	c.Set("X-Request-ID", id)

	start := time.Now()
	err := c.Next()
	h.logger.Info("request", "id", id, "method", c.Method(), "path", c.Path(),
		"status", c.Response().StatusCode(), "duration", time.Since(start))
	return err
}

// HandleHealth reports liveness.
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": Version,
		"engine":  "fiber",
	})
}

// HandleExtract accepts one or more PDFs in the "files" multipart field and
// processes them in upload order.
func (h *Handler) HandleExtract(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, fmt.Sprintf("Failed to parse form: %v", err))
	}

	files := form.File["files"]
	if len(files) == 0 {
		return writeError(c, fiber.StatusBadRequest, "No file uploaded. Use form field 'files'.")
	}
	for _, fh := range files {
		if !strings.HasSuffix(strings.ToLower(fh.Filename), ".pdf") {
			return writeError(c, fiber.StatusBadRequest, fmt.Sprintf("Only PDF files are supported: %q", fh.Filename))
		}
	}

	opts, err := h.formOptions(c)
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, err.Error())
	}

	tmpDir, err := os.MkdirTemp("", "statements-*")
	if err != nil {
		return writeError(c, fiber.StatusInternalServerError, "Failed to create temp dir.")
	}
	defer os.RemoveAll(tmpDir)

	docs := func(yield func(models.Document) bool) {
		for i, fh := range files {
			path := filepath.Join(tmpDir, fmt.Sprintf("%03d.pdf", i))
			var doc models.Document
			if err := c.SaveFile(fh, path); err != nil {
				doc = models.Document{Err: fmt.Errorf("failed to save upload: %w", err)}
			} else {
				doc = extractor.LoadDocument(path)
			}
			doc.Name = fh.Filename
			if !yield(doc) {
				return
			}
		}
	}

	return h.respond(c, docs, opts)
}

// HandleExtractText processes page text supplied as JSON.
func (h *Handler) HandleExtractText(c *fiber.Ctx) error {
	// Options omitted from the body, or an explicit null, keep the
	// configured defaults.
	opts := h.defaults
	req := TextRequest{Options: &opts}
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, fiber.StatusBadRequest, fmt.Sprintf("Invalid JSON body: %v", err))
	}
	if len(req.Documents) == 0 {
		return writeError(c, fiber.StatusBadRequest, "No documents supplied.")
	}

	docs := make([]models.Document, 0, len(req.Documents))
	for i, d := range req.Documents {
		name := d.Name
		if name == "" {
			name = fmt.Sprintf("document-%d", i+1)
		}
		pages := make([]string, len(d.Pages))
		for j, p := range d.Pages {
			if p != nil {
				pages[j] = *p
			}
		}
		docs = append(docs, models.Document{Name: name, Pages: pages})
	}

	return h.respond(c, func(yield func(models.Document) bool) {
		for _, d := range docs {
			if !yield(d) {
				return
			}
		}
	}, opts)
}

func (h *Handler) respond(c *fiber.Ctx, docs iter.Seq[models.Document], opts models.Options) error {
	res, err := h.pipeline.ProcessSeq(c.UserContext(), docs, opts)
	if err != nil {
		return writeError(c, fiber.StatusServiceUnavailable, fmt.Sprintf("Processing interrupted: %v", err))
	}

	var csvBuf bytes.Buffer
	csvWriter := &writer.CSVWriter{IncludeExtraColumns: opts.IncludeExtraColumns}
	if err := csvWriter.Write(&csvBuf, res.Movements); err != nil {
		return writeError(c, fiber.StatusInternalServerError, fmt.Sprintf("CSV generation failed: %v", err))
	}

	resp := ExtractResponse{
		Success:   true,
		RequestID: requestID(c),
		Movements: res.Movements,
		Documents: res.Documents,
		Stats:     res.Stats,
		NoData:    res.NoData,
		Columns:   writer.Columns(opts.IncludeExtraColumns),
		CSV:       csvBuf.String(),
		Filename:  writer.Filename(h.now(), "csv"),
		Version:   Version,
	}
	// Monthly analysis is only meaningful with more than one movement.
	if len(res.Movements) > 1 {
		resp.Monthly = res.Monthly
	}
	if res.NoData {
		resp.Warning = "no movements found in any document"
	}
	return c.JSON(resp)
}

func (h *Handler) formOptions(c *fiber.Ctx) (models.Options, error) {
	opts := h.defaults
	fields := []struct {
		name string
		dst  *bool
	}{
		{"remove_duplicates", &opts.RemoveDuplicates},
		{"sort_by_date", &opts.SortByDate},
		{"include_extra_columns", &opts.IncludeExtraColumns},
	}
	for _, f := range fields {
		v := c.FormValue(f.name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, fmt.Errorf("invalid value %q for %s", v, f.name)
		}
		*f.dst = b
	}
	return opts, nil
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals("requestId").(string)
	return id
}

func writeError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ExtractResponse{
		Success:   false,
		Error:     msg,
		RequestID: requestID(c),
		Movements: []models.Movement{},
	})
}
