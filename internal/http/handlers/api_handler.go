package handlers

import (
	"errors"

	"bookfolio/internal/domain"
	"bookfolio/internal/services"
	"bookfolio/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type APIHandler struct {
	Registry *services.Registry
}

// bookJSON is a Book without the inline cover; clients fetch it from CoverURL.
type bookJSON struct {
	ID            string `json:"id"`
	BaseID        string `json:"baseId"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	Market        string `json:"market"`
	Price         string `json:"price"`
	Currency      string `json:"currency"`
	AmazonLink    string `json:"amazonLink,omitempty"`
	WebsiteLink   string `json:"websiteLink,omitempty"`
	PortfolioName string `json:"portfolioName,omitempty"`
	CoverURL      string `json:"coverUrl,omitempty"`
	Status        string `json:"status"`
	Account       string `json:"account"`
	BookType      string `json:"bookType"`
	CreatedAt     string `json:"createdAt"`
}

func toJSON(b domain.Book) bookJSON {
	out := bookJSON{
		ID:            b.ID,
		BaseID:        b.BaseID,
		Title:         b.Title,
		Author:        b.Author,
		Market:        string(b.Market),
		Price:         b.Price,
		Currency:      b.Currency,
		AmazonLink:    b.AmazonLink,
		WebsiteLink:   b.WebsiteLink,
		PortfolioName: b.PortfolioName,
		Status:        string(b.Status),
		Account:       b.Account,
		BookType:      string(b.BookType),
		CreatedAt:     b.CreatedAt,
	}
	if b.CoverImage != "" {
		out.CoverURL = "/cover/" + b.ID
	}
	return out
}

// GET /api/v1/books?market=us&dedupe=1
func (h *APIHandler) List(c *fiber.Ctx) error {
	m := domain.Market("")
	if q := c.Query("market"); q != "" {
		var ok bool
		if m, ok = validate.MarketOrAll(q); !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown market"})
		}
	}
	books := h.Registry.View(m, validate.Flag(c.Query("dedupe")))
	out := make([]bookJSON, 0, len(books))
	for _, b := range books {
		out = append(out, toJSON(b))
	}
	market := string(m)
	if market == "" {
		market = "all"
	}
	return c.JSON(fiber.Map{"market": market, "count": len(out), "books": out})
}

// GET /api/v1/books/:id
func (h *APIHandler) Get(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid id"})
	}
	b, err := h.Registry.Get(id)
	if errors.Is(err, services.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	}
	if err != nil {
		return err
	}
	return c.JSON(toJSON(b))
}
