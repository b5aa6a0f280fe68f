package handlers

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"

	"bookfolio/internal/log"
	"bookfolio/internal/services"
	"bookfolio/internal/validate"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/blake2b"
)

var errBadDataURI = errors.New("malformed data URI")

type CoverHandler struct {
	Registry *services.Registry
}

// GET /cover/:id serves the inline cover as a plain image.
func (h *CoverHandler) Serve(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "id"})
		return c.SendStatus(fiber.StatusNotFound)
	}
	b, err := h.Registry.Get(id)
	if err != nil || b.CoverImage == "" {
		return c.SendStatus(fiber.StatusNotFound)
	}
	mime, raw, err := ParseDataURI(b.CoverImage)
	if err != nil {
		log.Error(c, "cover.decode.fail", err, map[string]any{"id": id})
		return c.SendStatus(fiber.StatusNotFound)
	}

	etag := CoverETag(raw)
	c.Set(fiber.HeaderETag, etag)
	c.Set(fiber.HeaderCacheControl, "private, max-age=0, must-revalidate")
	if c.Get(fiber.HeaderIfNoneMatch) == etag {
		return c.SendStatus(fiber.StatusNotModified)
	}
	c.Set(fiber.HeaderContentType, mime)
	return c.Send(raw)
}

// ParseDataURI splits a base64 data URI into its media type and bytes.
func ParseDataURI(s string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, errBadDataURI
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, errBadDataURI
	}
	mime, isB64 := strings.CutSuffix(meta, ";base64")
	if !isB64 {
		return "", nil, errBadDataURI
	}
	if mime == "" {
		mime = "application/octet-stream"
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, err
	}
	return mime, raw, nil
}

// CoverETag is a strong validator over the image bytes.
func CoverETag(raw []byte) string {
	sum := blake2b.Sum256(raw)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}
