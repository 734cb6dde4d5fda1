package engine

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"venue-backend/internal/metadata"
)

// Handler exposes the engine operations of one entity over HTTP.
type Handler struct {
	engine *Engine
	entity *metadata.Entity
}

func NewHandler(e *Engine, entity *metadata.Entity) *Handler {
	return &Handler{engine: e, entity: entity}
}

// List handles GET /{path}?page=N
func (h *Handler) List(c *fiber.Ctx) error {
	page, err := h.engine.List(c.Context(), h.entity, metadata.OpList, c.QueryInt("page", 1))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, page, h.entity.Messages.Listed)
}

// Detail handles GET /{path}/detalle, the paginated listing with the full
// relation set, wrapped under the entity name.
func (h *Handler) Detail(c *fiber.Ctx) error {
	page, err := h.engine.List(c.Context(), h.entity, metadata.OpDetail, c.QueryInt("page", 1))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, fiber.Map{h.entity.Name: page}, h.entity.Messages.Listed)
}

// All handles GET /{path}/all
func (h *Handler) All(c *fiber.Ctx) error {
	rows, err := h.engine.All(c.Context(), h.entity)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, rows, h.entity.Messages.Listed)
}

// Search handles GET /{path}/search?nombre=...
func (h *Handler) Search(c *fiber.Ctx) error {
	term := c.Query("nombre")
	rows, err := h.engine.Search(c.Context(), h.entity, term)
	if err != nil {
		return fail(c, err)
	}
	msg := h.entity.Messages.SearchedAll
	if term != "" {
		msg = h.entity.Messages.Searched
	}
	return respond(c, fiber.StatusOK, rows, msg)
}

// GetByID handles GET /{path}/:id. For associations :id is the fixed key.
func (h *Handler) GetByID(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return respondError(c, NotFoundError(h.entity.Messages.NotFound))
	}

	var data any
	var err error
	if h.entity.IsAssociation() {
		data, err = h.engine.GetByFixedKey(c.Context(), h.entity, id)
	} else {
		data, err = h.engine.Get(c.Context(), h.entity, id)
	}
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, data, h.entity.Messages.Found)
}

// Nested handles GET /{path}/:id/{leaf}
func (h *Handler) Nested(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return respondError(c, NotFoundError(h.entity.Messages.NotFound))
	}
	view, err := h.engine.NestedView(c.Context(), h.entity, id)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, view, h.entity.Messages.Nested)
}

// Create handles POST /{path}
func (h *Handler) Create(c *fiber.Ctx) error {
	in, err := ParseInput(c.Body())
	if err != nil {
		return respondError(c, InvalidPayloadError("Cuerpo JSON inválido"))
	}

	row, err := h.engine.Create(c.Context(), h.entity, in)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusCreated, row, h.entity.Messages.Created)
}

// Update handles PUT /{path}/:id. Associations take a key substitution body.
func (h *Handler) Update(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return respondError(c, NotFoundError(h.entity.Messages.NotFound))
	}

	in, err := ParseInput(c.Body())
	if err != nil {
		return respondError(c, InvalidPayloadError("Cuerpo JSON inválido"))
	}

	var data any
	if h.entity.IsAssociation() {
		data, err = h.engine.SubstituteKey(c.Context(), h.entity, id, in)
	} else {
		data, err = h.engine.Update(c.Context(), h.entity, id, in)
	}
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, data, h.entity.Messages.Updated)
}

// Delete handles DELETE /{path}/:id. For associations an optional
// ?<varying>= query narrows the delete to one pair.
func (h *Handler) Delete(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return respondError(c, NotFoundError(h.entity.Messages.NotFound))
	}

	var data any
	var err error
	if a := h.entity.Association; a != nil {
		var varying *int64
		if raw := c.Query(a.Varying); raw != "" {
			v, perr := strconv.ParseInt(raw, 10, 64)
			if perr != nil {
				return respondError(c, ValidationError(FieldErrors{
					a.Varying: {fmt.Sprintf(msgInteger, attribute(a.Varying))},
				}))
			}
			varying = &v
		}
		data, err = h.engine.DeletePairs(c.Context(), h.entity, id, varying)
	} else {
		data, err = h.engine.Delete(c.Context(), h.entity, id)
	}
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, data, h.entity.Messages.Deleted)
}

// pathID parses :id. A malformed id names no row.
func pathID(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	return id, err == nil
}

// fail renders domain errors as the failure envelope and hands anything
// else to the application error handler.
func fail(c *fiber.Ctx, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return respondError(c, appErr)
	}
	return err
}
