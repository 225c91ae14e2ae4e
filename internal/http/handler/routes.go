package handler

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"contentapi/internal/events"
	"contentapi/internal/model"
	"contentapi/internal/service"
	"contentapi/internal/storage"
)

// finalizeRequest is the JSON body for registering bytes that were uploaded
// directly to the storage backend (e.g. through a presigned URL).
type finalizeRequest struct {
	OriginalFilename string         `json:"original_filename"`
	StoragePath      string         `json:"storage_path"`
	ContentType      string         `json:"content_type"`
	Checksum         string         `json:"checksum"`
	Size             int64          `json:"size"`
	Metadata         model.Metadata `json:"metadata"`
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Keep handlers minimal and free of business logic in this skeleton.
func RegisterRoutes(app *fiber.App, db *sql.DB, contentSvc service.ContentService, broadcaster *events.Broadcaster) {
	// Serve OpenAPI spec and Swagger UI
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	})

	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	api := app.Group("/api")
	api.Get("/items", ListItems(contentSvc))
	api.Post("/items", FinalizeItem(contentSvc))
	api.Get("/items/:id", GetItem(contentSvc))
	api.Delete("/items/:id", DeleteItem(contentSvc))
	api.Post("/upload", UploadContent(contentSvc))
	api.Get("/upload-params", UploadInstructions(contentSvc))
	api.Get("/events", StreamEvents(broadcaster))
}

// HealthCheck reports whether the database is reachable.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a simple liveness endpoint.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// ListItems returns content items with limit & offset paging.
func ListItems(contentSvc service.ContentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limitStr := c.Query("limit", "10")
		offsetStr := c.Query("offset", "0")
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := contentSvc.List(c.UserContext(), limit, offset)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	}
}

// UploadContent accepts a multipart upload (field name: file) plus an
// optional metadata field carrying a JSON object of initial attributes.
func UploadContent(contentSvc service.ContentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_READ_ERROR", "cannot read uploaded file")
		}

		var meta model.Metadata
		if raw := c.FormValue("metadata"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &meta); err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_METADATA", "metadata must be a JSON object")
			}
		}

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		item, err := contentSvc.Upload(c.UserContext(), data, fh.Filename, ct, meta)
		if err != nil {
			if errors.Is(err, service.ErrDataRequired) || errors.Is(err, service.ErrFilenameRequired) {
				return writeError(c, fiber.StatusBadRequest, "INVALID_UPLOAD", err.Error())
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.Status(fiber.StatusCreated).JSON(item)
	}
}

// UploadInstructions tells the client how to upload a file: a local POST
// target, or a presigned URL when the backend supports direct upload.
func UploadInstructions(contentSvc service.ContentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		filename := c.Query("filename")
		if filename == "" {
			return writeError(c, fiber.StatusBadRequest, "FILENAME_REQUIRED", "filename is required")
		}
		params, err := contentSvc.UploadParams(c.UserContext(), filename)
		if err != nil {
			if storage.IsPermissionDenied(err) {
				return writeError(c, fiber.StatusForbidden, "PERMISSION_DENIED", "storage backend denied the request")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(params)
	}
}

// FinalizeItem registers a record for bytes already stored via a direct
// (presigned) upload.
func FinalizeItem(contentSvc service.ContentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req finalizeRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		item, err := contentSvc.Finalize(c.UserContext(), service.FinalizeInput{
			OriginalFilename: req.OriginalFilename,
			StoragePath:      req.StoragePath,
			ContentType:      req.ContentType,
			Checksum:         req.Checksum,
			Size:             req.Size,
			Metadata:         req.Metadata,
		})
		if err != nil {
			if errors.Is(err, service.ErrFilenameRequired) || errors.Is(err, service.ErrPathRequired) {
				return writeError(c, fiber.StatusBadRequest, "INVALID_ITEM", err.Error())
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.Status(fiber.StatusCreated).JSON(item)
	}
}

// GetItem returns a single content item by ID.
func GetItem(contentSvc service.ContentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		item, err := contentSvc.Get(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "content item not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(item)
	}
}

// DeleteItem removes a content item together with its stored bytes.
func DeleteItem(contentSvc service.ContentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := contentSvc.Delete(c.UserContext(), id); err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "content item not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// StreamEvents streams item update notifications as server-sent events.
// Each broadcast message becomes one "data:" frame; a periodic comment
// line keeps the connection alive through proxies.
func StreamEvents(broadcaster *events.Broadcaster) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, "text/event-stream")
		c.Set(fiber.HeaderCacheControl, "no-cache")
		c.Set(fiber.HeaderConnection, "keep-alive")

		sub := broadcaster.Subscribe()
		ctx := c.UserContext()

		c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
			defer broadcaster.Unsubscribe(sub)

			keepalive := time.NewTicker(15 * time.Second)
			defer keepalive.Stop()

			for {
				select {
				case msg, ok := <-sub:
					if !ok {
						return
					}
					if _, err := w.WriteString("data: "); err != nil {
						return
					}
					if _, err := w.Write(msg); err != nil {
						return
					}
					if _, err := w.WriteString("\n\n"); err != nil {
						return
					}
					if err := w.Flush(); err != nil {
						return
					}
				case <-keepalive.C:
					if _, err := w.WriteString(": keepalive\n\n"); err != nil {
						return
					}
					if err := w.Flush(); err != nil {
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}))
		return nil
	}
}
