package handlers

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"bookfolio/internal/domain"
	applog "bookfolio/internal/log"
	"bookfolio/internal/services"
	"bookfolio/internal/validate"

	"github.com/gofiber/fiber/v2"
)

const (
	maxTitle    = 200
	maxText     = 120
	maxLink     = 2048
	maxCoverRaw = 4 << 20
)

var errNotImage = errors.New("cover must be an image")

type BookHandler struct {
	Registry *services.Registry
	Gallery  *GalleryHandler
}

// selectedMarket reads the market the form was posted from; us when absent.
func selectedMarket(c *fiber.Ctx) (domain.Market, string) {
	if m, ok := validate.Market(c.FormValue("market")); ok {
		return m, string(m)
	}
	if strings.EqualFold(c.FormValue("market"), "all") {
		return domain.MarketUS, "all"
	}
	return domain.MarketUS, string(domain.MarketUS)
}

// POST /books
func (h *BookHandler) Add(c *fiber.Ctx) error {
	selected, back := selectedMarket(c)

	cover, err := readCover(c)
	if err != nil {
		applog.Security(c, "validation.fail", map[string]any{"field": "cover", "reason": err.Error()})
		return h.Gallery.page(c, fiber.StatusBadRequest, marketOf(back), false, fiber.Map{"Err": "Cover must be an image file."})
	}

	status, ok := validate.Status(c.FormValue("status"))
	if !ok {
		status = domain.StatusActive
	}
	account, ok := validate.Account(c.FormValue("account"))
	if !ok {
		account = domain.DefaultAccount()
	}
	sub := domain.Submission{
		Title:         validate.Text(c.FormValue("title"), maxTitle),
		Author:        validate.Text(c.FormValue("author"), maxText),
		BookType:      validate.BookType(c.FormValue("bookType")),
		Price:         validate.Text(c.FormValue("price"), maxText),
		AmazonLink:    validate.Text(c.FormValue("amazonLink"), maxLink),
		WebsiteLink:   validate.Text(c.FormValue("websiteLink"), maxLink),
		PortfolioName: validate.Text(c.FormValue("portfolioName"), maxText),
		CoverImage:    cover,
		Status:        status,
		Account:       account,
	}

	books, err := h.Registry.Submit(sub, selected)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			applog.Security(c, "validation.fail", map[string]any{"field": "title/author"})
			return h.Gallery.page(c, fiber.StatusBadRequest, marketOf(back), false, fiber.Map{
				"Err":  "Please fill in the book title and choose an author.",
				"Form": sub,
			})
		}
		return err
	}

	markets := make([]string, 0, len(books))
	for _, b := range books {
		markets = append(markets, string(b.Market))
	}
	applog.Audit(c, "book.add", map[string]any{"group": books[0].BaseID, "markets": markets, "title": sub.Title})
	return c.Redirect("/market/" + back)
}

// POST /books/:id
func (h *BookHandler) Update(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "id"})
		return notFound(c, "This book no longer exists")
	}
	_, back := selectedMarket(c)

	var p domain.Patch
	if v, ok := formField(c, "title"); ok {
		v = validate.Text(v, maxTitle)
		p.Title = &v
	}
	if v, ok := formField(c, "author"); ok {
		v = validate.Text(v, maxText)
		p.Author = &v
	}
	if v, ok := formField(c, "price"); ok {
		v = validate.Text(v, maxText)
		p.Price = &v
	}
	if v, ok := formField(c, "amazonLink"); ok {
		v = validate.Text(v, maxLink)
		p.AmazonLink = &v
	}
	if v, ok := formField(c, "websiteLink"); ok {
		v = validate.Text(v, maxLink)
		p.WebsiteLink = &v
	}
	if v, ok := formField(c, "portfolioName"); ok {
		v = validate.Text(v, maxText)
		p.PortfolioName = &v
	}
	if v, ok := formField(c, "status"); ok {
		st, _ := validate.Status(v)
		p.Status = &st
	}
	if v, ok := formField(c, "account"); ok {
		// unknown names reach Update and are rejected there
		acc, _ := validate.Account(v)
		p.Account = &acc
	}
	cover, err := readCover(c)
	if err != nil {
		applog.Security(c, "validation.fail", map[string]any{"field": "cover", "reason": err.Error()})
		return h.Gallery.page(c, fiber.StatusBadRequest, marketOf(back), false, fiber.Map{"Err": "Cover must be an image file."})
	}
	if cover != "" {
		p.CoverImage = &cover
	} else if validate.Flag(c.FormValue("removeCover")) {
		p.CoverImage = &cover
	}

	b, err := h.Registry.Update(id, p)
	switch {
	case errors.Is(err, services.ErrNotFound):
		return notFound(c, "This book no longer exists")
	case errors.Is(err, services.ErrValidation):
		applog.Security(c, "validation.fail", map[string]any{"field": "patch", "id": id})
		data := fiber.Map{"Err": "Please keep a title, an author and a known status/account."}
		if cur, gerr := h.Registry.Get(id); gerr == nil {
			data["Edit"] = cur
		}
		return h.Gallery.page(c, fiber.StatusBadRequest, marketOf(back), false, data)
	case err != nil:
		return err
	}
	applog.Audit(c, "book.update", map[string]any{"id": id, "market": string(b.Market)})
	if back == "all" {
		return c.Redirect("/market/all")
	}
	return c.Redirect("/market/" + string(b.Market))
}

// POST /books/:id/status
func (h *BookHandler) ToggleStatus(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "id"})
		return notFound(c, "This book no longer exists")
	}
	_, back := selectedMarket(c)
	b, err := h.Registry.ToggleStatus(id)
	if errors.Is(err, services.ErrNotFound) {
		return notFound(c, "This book no longer exists")
	}
	if err != nil {
		return err
	}
	applog.Audit(c, "book.status", map[string]any{"id": id, "status": string(b.Status)})
	return c.Redirect("/market/" + back)
}

// POST /groups/:gid/delete
func (h *BookHandler) DeleteGroup(c *fiber.Ctx) error {
	gid, ok := validate.ID(c.Params("gid"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "gid"})
		return notFound(c, "This book no longer exists")
	}
	_, back := selectedMarket(c)
	n, err := h.Registry.DeleteGroup(gid)
	switch {
	case errors.Is(err, services.ErrDeleteDisabled):
		applog.Security(c, "book.delete.disabled", map[string]any{"group": gid})
		return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Deleting is turned off. Archive the book instead."})
	case errors.Is(err, services.ErrNotFound):
		return notFound(c, "This book no longer exists")
	case err != nil:
		return err
	}
	applog.Audit(c, "book.delete", map[string]any{"group": gid, "removed": n})
	return c.Redirect("/market/" + back)
}

func marketOf(back string) domain.Market {
	if back == "all" {
		return ""
	}
	return domain.Market(back)
}

// formField reports whether key was posted at all, so an edit can tell an
// emptied field from an absent one.
func formField(c *fiber.Ctx, key string) (string, bool) {
	if form, err := c.MultipartForm(); err == nil {
		v, ok := form.Value[key]
		if !ok || len(v) == 0 {
			return "", false
		}
		return v[0], true
	}
	args := c.Request().PostArgs()
	if !args.Has(key) {
		return "", false
	}
	return string(args.Peek(key)), true
}

// readCover turns an uploaded "cover" file into a data URI. No upload yields "".
func readCover(c *fiber.Ctx) (string, error) {
	fh, err := c.FormFile("cover")
	if err != nil || fh == nil || fh.Size == 0 {
		return "", nil
	}
	if fh.Size > maxCoverRaw {
		return "", fmt.Errorf("cover too large (%d bytes)", fh.Size)
	}
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	raw, err := io.ReadAll(io.LimitReader(f, maxCoverRaw+1))
	if err != nil {
		return "", err
	}
	return DataURI(raw)
}

// DataURI encodes an image as data:<mime>;base64,<payload>.
func DataURI(raw []byte) (string, error) {
	mime := http.DetectContentType(raw)
	if !strings.HasPrefix(mime, "image/") {
		return "", errNotImage
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(raw), nil
}
