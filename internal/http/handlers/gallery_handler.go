package handlers

import (
	"bookfolio/internal/config"
	"bookfolio/internal/domain"
	"bookfolio/internal/log"
	"bookfolio/internal/services"
	"bookfolio/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type GalleryHandler struct {
	Registry *services.Registry
	Expand   config.ExpandPolicy
	Removal  config.RemovalPolicy
}

type marketTab struct {
	Code   string
	Name   string
	Flag   string
	Count  int
	Active bool
}

// Home sends visitors to the first market.
func (h *GalleryHandler) Home(c *fiber.Ctx) error {
	return c.Redirect("/market/" + string(domain.MarketUS))
}

// GET /market/:code
func (h *GalleryHandler) Market(c *fiber.Ctx) error {
	m, ok := validate.MarketOrAll(c.Params("code"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "market", "value": c.Params("code")})
		return notFound(c, "Unknown market")
	}
	data := fiber.Map{}
	if id, ok := validate.ID(c.Query("edit")); ok {
		if b, err := h.Registry.Get(id); err == nil {
			data["Edit"] = b
		}
	}
	return h.page(c, fiber.StatusOK, m, validate.Flag(c.Query("dedupe")), data)
}

// page renders the gallery for m. Extra keys (Err, Edit, Form) are merged in.
func (h *GalleryHandler) page(c *fiber.Ctx, status int, m domain.Market, dedupe bool, extra fiber.Map) error {
	all := h.Registry.All()
	counts := services.Counts(all)

	tabs := make([]marketTab, 0, len(domain.Markets)+1)
	for _, code := range domain.Markets {
		info := code.Info()
		tabs = append(tabs, marketTab{Code: string(code), Name: info.Name, Flag: info.Flag, Count: counts[code], Active: code == m})
	}
	tabs = append(tabs, marketTab{Code: "all", Name: "All books", Flag: "📚", Count: len(services.DedupeByGroup(all)), Active: m == ""})

	// all-markets view always collapses per-market copies
	books := services.Gallery(all, m, dedupe || m == "")

	selected := "all"
	name := "All books"
	defaultType := domain.BookTypeEnglish
	if m != "" {
		selected = string(m)
		name = m.Info().Name
		defaultType = m.BookType()
	}

	msgs := []string{}
	for _, w := range h.Registry.Warnings() {
		msgs = append(msgs, w.Message)
	}

	data := fiber.Map{
		"Tabs":        tabs,
		"Selected":    selected,
		"MarketName":  name,
		"Books":       books,
		"Count":       len(books),
		"Dedupe":      dedupe,
		"Authors":     domain.Authors,
		"Accounts":    domain.Accounts,
		"DefaultType": string(defaultType),
		"EnglishNote": m == domain.MarketUS && h.Expand == config.ExpandSingle,
		"CanDelete":   h.Removal == config.RemoveDelete,
		"Warnings":    msgs,
	}
	for k, v := range extra {
		data[k] = v
	}
	return render(c.Status(status), "gallery", data)
}
