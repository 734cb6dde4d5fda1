package engine

import (
	"github.com/gofiber/fiber/v2"

	"venue-backend/internal/metadata"
)

// RouteOptions carries the middleware wrapped around entity routes.
type RouteOptions struct {
	// Auth gates create, update and delete. Nil leaves writes open.
	Auth fiber.Handler
	// ReadCache, when set, returns the caching middleware for an entity's
	// read routes.
	ReadCache func(entity *metadata.Entity) fiber.Handler
}

// RegisterEntityRoutes mounts the operations every routed entity offers.
// Fixed segments (all, search, detalle) are registered before /:id.
func RegisterEntityRoutes(router fiber.Router, e *Engine, opts RouteOptions) {
	for _, entity := range e.Registry().AllEntities() {
		if !entity.Routed() {
			continue
		}
		h := NewHandler(e, entity)
		grp := router.Group("/" + entity.Path)

		var reads []fiber.Handler
		if opts.ReadCache != nil {
			reads = append(reads, opts.ReadCache(entity))
		}
		var writes []fiber.Handler
		if opts.Auth != nil {
			writes = append(writes, opts.Auth)
		}

		get := func(path string, handler fiber.Handler) {
			grp.Get(path, chain(reads, handler)...)
		}

		if entity.Offers(metadata.OpList) {
			get("/", h.List)
		}
		if entity.Offers(metadata.OpAll) {
			get("/all", h.All)
		}
		if entity.Offers(metadata.OpSearch) {
			get("/search", h.Search)
		}
		if entity.Offers(metadata.OpDetail) {
			get("/detalle", h.Detail)
		}
		if len(entity.Nested) == 2 {
			get("/:id/"+entity.Nested[1], h.Nested)
		}
		if entity.Offers(metadata.OpGet) {
			get("/:id", h.GetByID)
		}
		if entity.Offers(metadata.OpCreate) {
			grp.Post("/", chain(writes, h.Create)...)
		}
		if entity.Offers(metadata.OpUpdate) {
			grp.Put("/:id", chain(writes, h.Update)...)
		}
		if entity.Offers(metadata.OpDelete) {
			grp.Delete("/:id", chain(writes, h.Delete)...)
		}
	}
}

// RegisterImageRoutes mounts the image upload and download endpoints next
// to the entity routes of the image entity.
func RegisterImageRoutes(router fiber.Router, h *ImageHandler, auth fiber.Handler) {
	grp := router.Group("/" + h.entity.Path)
	var writes []fiber.Handler
	if auth != nil {
		writes = append(writes, auth)
	}
	grp.Post("/", chain(writes, h.Upload)...)
	grp.Get("/archivos/:key", h.Serve)
}

// chain returns a fresh handler list, so routes never share a backing array.
func chain(middleware []fiber.Handler, h fiber.Handler) []fiber.Handler {
	out := make([]fiber.Handler, 0, len(middleware)+1)
	out = append(out, middleware...)
	return append(out, h)
}
