package handlers

import (
	"bookfolio/internal/config"
	"bookfolio/internal/repos"
	"bookfolio/internal/services"
)

type Deps struct {
	GalleryHandler *GalleryHandler
	BookHandler    *BookHandler
	CoverHandler   *CoverHandler
	APIHandler     *APIHandler
	HealthHandler  *HealthHandler
}

func NewDeps(reg *services.Registry, slots *repos.SlotRepo, cfg config.Config) *Deps {
	gallery := &GalleryHandler{Registry: reg, Expand: cfg.Expand, Removal: cfg.Removal}
	return &Deps{
		GalleryHandler: gallery,
		BookHandler:    &BookHandler{Registry: reg, Gallery: gallery},
		CoverHandler:   &CoverHandler{Registry: reg},
		APIHandler:     &APIHandler{Registry: reg},
		HealthHandler:  &HealthHandler{Slots: slots, Quota: cfg.StorageQuota},
	}
}
