package services

import (
	"encoding/json"
	"strings"

	"bookfolio/internal/domain"
)

// flexString accepts JSON strings and numbers. Older payloads stored numeric
// group ids and prices.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

type storedBook struct {
	domain.Book
	BaseID flexString `json:"baseId"`
	Price  flexString `json:"price"`
}

// DecodeBooks parses a persisted payload and normalises every record.
// Later records repeating an id, or a group already listed on the same
// market, are dropped.
func DecodeBooks(raw string) ([]domain.Book, error) {
	var stored []storedBook
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil, err
	}
	out := make([]domain.Book, 0, len(stored))
	seen := make(map[string]struct{}, 2*len(stored))
	for _, s := range stored {
		b := s.Book
		b.BaseID = string(s.BaseID)
		b.Price = string(s.Price)
		b = Normalize(b)
		pair := "group:" + domain.BookID(b.BaseID, b.Market)
		if _, dup := seen[b.ID]; dup {
			continue
		}
		if _, dup := seen[pair]; dup {
			continue
		}
		seen[b.ID] = struct{}{}
		seen[pair] = struct{}{}
		out = append(out, b)
	}
	return out, nil
}

// EncodeBooks serialises books as a JSON array; nil encodes as [].
func EncodeBooks(books []domain.Book) (string, error) {
	if books == nil {
		books = []domain.Book{}
	}
	b, err := json.Marshal(books)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Normalize fills fields that older payloads lack and re-derives the ones
// that follow from the market.
func Normalize(b domain.Book) domain.Book {
	if !b.Market.Valid() {
		b.Market = domain.MarketUS
		if i := strings.LastIndexByte(b.ID, '_'); i >= 0 {
			if m := domain.Market(b.ID[i+1:]); m.Valid() {
				b.Market = m
			}
		}
	}
	if b.BaseID == "" {
		b.BaseID = b.ID
		if i := strings.LastIndexByte(b.ID, '_'); i > 0 {
			b.BaseID = b.ID[:i]
		}
	}
	if b.BaseID == "" {
		b.BaseID = newGroupID()
	}
	if b.ID == "" {
		b.ID = domain.BookID(b.BaseID, b.Market)
	}
	b.BookType = b.Market.BookType()
	if b.Currency == "" {
		b.Currency = b.Market.Currency()
	}
	switch b.Status {
	case domain.StatusActive, domain.StatusArchived:
	case "archive":
		b.Status = domain.StatusArchived
	default:
		b.Status = domain.StatusActive
	}
	if !domain.ValidAccount(b.Account) {
		b.Account = domain.DefaultAccount()
	}
	return b
}
