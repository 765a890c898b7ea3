package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/ukaji3/xltable-go/pkg/xltable"
	"github.com/ukaji3/xltable-go/pkg/xltable/models"
)

// TableReader reads one sheet of an uploaded workbook.
type TableReader interface {
	Read(data []byte, name string, opts xltable.Options) (*models.Table, error)
}

// WorkbookReader is the TableReader backed by xltable.ReadBytes.
type WorkbookReader struct{}

// NewReader creates a WorkbookReader.
func NewReader() *WorkbookReader {
	return &WorkbookReader{}
}

func (*WorkbookReader) Read(data []byte, name string, opts xltable.Options) (*models.Table, error) {
	return xltable.ReadBytes(data, name, opts)
}

// errorResponse is the body of every non-2xx response. Table carries the
// rows read before a parse failure.
type errorResponse struct {
	Error string        `json:"error"`
	Table *models.Table `json:"table,omitempty"`
}

type requestIDKey struct{}

// TableHandler serves table reads.
type TableHandler struct {
	reader TableReader
	cfg    Config
	log    *slog.Logger
}

// NewTableHandler creates a TableHandler.
func NewTableHandler(reader TableReader, cfg Config, log *slog.Logger) *TableHandler {
	return &TableHandler{reader: reader, cfg: cfg, log: log}
}

// Register mounts the handler's routes on app.
func (h *TableHandler) Register(app *fiber.App) {
	app.Use(h.requestID)
	app.Get("/healthz", h.healthz)
	app.Post("/tables", h.readTable)
}

func (h *TableHandler) requestID(c fiber.Ctx) error {
	id := c.Get(fiber.HeaderXRequestID)
	if id == "" {
		id = uuid.NewString()
	}
	c.Set(fiber.HeaderXRequestID, id)
	c.Locals(requestIDKey{}, id)
	return c.Next()
}

func (h *TableHandler) healthz(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *TableHandler) readTable(c fiber.Ctx) error {
	id, _ := c.Locals(requestIDKey{}).(string)
	log := h.log.With("request_id", id)

	opts, err := h.options(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: err.Error()})
	}
	opts.Logger = log

	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "missing multipart field \"file\""})
	}
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return err
	}

	table, err := h.reader.Read(data, fh.Filename, opts)
	if err != nil {
		status := fiber.StatusUnprocessableEntity
		if errors.Is(err, xltable.ErrInvalidOptions) {
			status = fiber.StatusBadRequest
		}
		return c.Status(status).JSON(errorResponse{Error: err.Error(), Table: table})
	}
	return c.JSON(table)
}

func (h *TableHandler) options(c fiber.Ctx) (xltable.Options, error) {
	opts := xltable.DefaultOptions()
	opts.Columns = h.cfg.Columns
	opts.Sheet = h.cfg.Sheet

	var err error
	if opts.Columns, err = intQuery(c, "columns", opts.Columns); err != nil {
		return opts, err
	}
	if opts.Sheet, err = intQuery(c, "sheet", opts.Sheet); err != nil {
		return opts, err
	}
	if opts.Format, err = xltable.ParseFormat(c.Query("format")); err != nil {
		return opts, err
	}
	return opts, opts.Validate()
}

func intQuery(c fiber.Ctx, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", xltable.ErrInvalidOptions, key, raw)
	}
	return n, nil
}
