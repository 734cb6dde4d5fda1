package admin

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"venue-backend/internal/engine"
	"venue-backend/internal/metadata"
	"venue-backend/internal/store"
)

// Handler exposes the entity declarations and schema maintenance.
type Handler struct {
	store    *store.Store
	registry *metadata.Registry
	migrator *store.Migrator
}

func NewHandler(s *store.Store, reg *metadata.Registry, mig *store.Migrator) *Handler {
	return &Handler{store: s, registry: reg, migrator: mig}
}

// RegisterAdminRoutes mounts /_meta behind the given middleware.
func RegisterAdminRoutes(router fiber.Router, h *Handler, middleware ...fiber.Handler) {
	meta := router.Group("/_meta", middleware...)

	meta.Get("/entities", h.ListEntities)
	meta.Get("/entities/:name", h.GetEntity)
	meta.Post("/migrate", h.Migrate)
}

type entitySummary struct {
	Name        string               `json:"name"`
	Table       string               `json:"table"`
	Path        string               `json:"path,omitempty"`
	Label       string               `json:"label"`
	Association bool                 `json:"association"`
	Operations  []metadata.Operation `json:"operations"`
}

// ListEntities handles GET /_meta/entities
func (h *Handler) ListEntities(c *fiber.Ctx) error {
	entities := h.registry.AllEntities()
	out := make([]entitySummary, 0, len(entities))
	for _, e := range entities {
		ops := e.Operations
		if ops == nil {
			ops = []metadata.Operation{}
		}
		out = append(out, entitySummary{
			Name:        e.Name,
			Table:       e.Table,
			Path:        e.Path,
			Label:       e.Label,
			Association: e.IsAssociation(),
			Operations:  ops,
		})
	}
	return c.JSON(engine.Envelope{Success: true, Data: out, Message: "Entidades devueltas con éxito"})
}

// GetEntity handles GET /_meta/entities/:name. The response carries the
// full declaration, the entities embedding it and the table DDL for the
// running dialect.
func (h *Handler) GetEntity(c *fiber.Ctx) error {
	name := c.Params("name")
	entity := h.registry.GetEntity(name)
	if entity == nil {
		return engine.UnknownEntityError(name)
	}

	ddl, err := store.CreateTableSQL(h.store.Dialect, h.registry, entity)
	if err != nil {
		return fmt.Errorf("build ddl for %s: %w", name, err)
	}

	dependents := h.registry.Dependents(name)
	if dependents == nil {
		dependents = []string{}
	}

	return c.JSON(engine.Envelope{
		Success: true,
		Data: fiber.Map{
			"entity":      entity,
			"embedded_by": dependents,
			"ddl":         ddl,
		},
		Message: "Entidad devuelta con éxito",
	})
}

// Migrate handles POST /_meta/migrate: creates missing tables and adds
// missing columns for every declared entity.
func (h *Handler) Migrate(c *fiber.Ctx) error {
	if err := h.migrator.MigrateAll(c.UserContext(), h.registry); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	slog.Info("schema migrated on request", "entities", len(h.registry.AllEntities()))
	return c.JSON(engine.Envelope{Success: true, Data: nil, Message: "Esquema actualizado"})
}
