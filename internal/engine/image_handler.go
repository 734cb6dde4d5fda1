package engine

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"venue-backend/internal/metadata"
	"venue-backend/internal/storage"
)

// ImageHandler uploads image blobs and records them as imagen rows.
type ImageHandler struct {
	engine    *Engine
	entity    *metadata.Entity
	storage   storage.FileStorage
	maxSize   int64
	publicURL string
}

func NewImageHandler(e *Engine, entityName string, fs storage.FileStorage, maxSize int64, publicURL string) (*ImageHandler, error) {
	entity := e.Registry().GetEntity(entityName)
	if entity == nil {
		return nil, fmt.Errorf("unknown entity %s", entityName)
	}
	return &ImageHandler{
		engine:    e,
		entity:    entity,
		storage:   fs,
		maxSize:   maxSize,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

// Upload handles POST /{path} as multipart with a "file" part and an
// optional "nombre" field.
func (h *ImageHandler) Upload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return respondError(c, ValidationError(FieldErrors{
			"file": {fmt.Sprintf(msgRequired, "file")},
		}))
	}

	if h.maxSize > 0 && file.Size > h.maxSize {
		msg := fmt.Sprintf("Archivo demasiado grande: %d bytes (máximo %d)", file.Size, h.maxSize)
		return respondError(c, NewAppError("FILE_TOO_LARGE", 413, msg))
	}

	mimeType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(mimeType, "image/") {
		return respondError(c, ValidationError(FieldErrors{
			"file": {"El campo file debe ser una imagen."},
		}))
	}

	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("open uploaded file: %w", err)
	}
	defer src.Close()

	key := uuid.NewString() + strings.ToLower(filepath.Ext(file.Filename))
	if err := h.storage.Save(c.Context(), key, mimeType, src); err != nil {
		return fmt.Errorf("save file: %w", err)
	}

	nombre := c.FormValue("nombre")
	if nombre == "" {
		nombre = file.Filename
	}

	row, err := h.engine.Create(c.Context(), h.entity, NewInput(map[string]any{
		"nombre":    nombre,
		"url":       h.fileURL(key),
		"clave":     key,
		"tipo_mime": mimeType,
		"tamano":    file.Size,
	}))
	if err != nil {
		// Clean up stored file on DB failure
		_ = h.storage.Delete(c.Context(), key)
		return fail(c, err)
	}

	return respond(c, fiber.StatusCreated, row, h.entity.Messages.Created)
}

// Serve handles GET /{path}/archivos/:key
func (h *ImageHandler) Serve(c *fiber.Ctx) error {
	key := c.Params("key")

	rows, err := h.engine.selectRows(c.Context(), h.engine.store.DB, h.entity, Condition{Field: "clave", Value: key})
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return respondError(c, NotFoundError(h.entity.Messages.NotFound))
	}

	reader, err := h.storage.Open(c.Context(), key)
	if errors.Is(err, storage.ErrNotExist) {
		return respondError(c, NotFoundError(h.entity.Messages.NotFound))
	}
	if err != nil {
		return fmt.Errorf("open stored file: %w", err)
	}

	if mimeType, ok := rows[0]["tipo_mime"].(string); ok && mimeType != "" {
		c.Set(fiber.HeaderContentType, mimeType)
	}
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="%s"`, key))

	// fasthttp closes the reader once the body is sent
	return c.SendStream(reader)
}

func (h *ImageHandler) fileURL(key string) string {
	if h.publicURL != "" {
		return h.publicURL + "/" + key
	}
	return "/" + h.entity.Path + "/archivos/" + key
}
