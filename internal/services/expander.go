package services

import (
	"fmt"
	"strings"
	"time"

	"bookfolio/internal/config"
	"bookfolio/internal/domain"

	"github.com/google/uuid"
)

// Expander turns one submitted form into the records to insert.
type Expander struct {
	Policy     config.ExpandPolicy
	NewGroupID func() string
	Now        func() time.Time
}

func NewExpander(policy config.ExpandPolicy) *Expander {
	return &Expander{Policy: policy, NewGroupID: newGroupID, Now: time.Now}
}

// newGroupID returns a time-ordered UUIDv7 string.
func newGroupID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Markets returns the markets a book of type t is listed on under the policy.
func (e *Expander) Markets(t domain.BookType) []domain.Market {
	switch {
	case t == domain.BookTypeGerman:
		return []domain.Market{domain.MarketDE}
	case e.Policy == config.ExpandAllEnglish:
		return append([]domain.Market(nil), domain.EnglishMarkets...)
	default:
		return []domain.Market{domain.MarketUS}
	}
}

// Expand validates sub and produces its records in market order, all sharing
// one fresh group id. When sub carries no book type, the selected market
// decides it.
func (e *Expander) Expand(sub domain.Submission, selected domain.Market) ([]domain.Book, error) {
	title := strings.TrimSpace(sub.Title)
	author := strings.TrimSpace(sub.Author)
	if title == "" || author == "" {
		return nil, fmt.Errorf("%w: title and author are required", ErrValidation)
	}

	bookType := sub.BookType
	if !bookType.Valid() {
		bookType = selected.BookType()
	}
	status := sub.Status
	if !status.Valid() {
		status = domain.StatusActive
	}
	account := sub.Account
	if !domain.ValidAccount(account) {
		account = domain.DefaultAccount()
	}

	groupID := e.NewGroupID()
	createdAt := e.Now().UTC().Format(time.RFC3339)

	markets := e.Markets(bookType)
	out := make([]domain.Book, 0, len(markets))
	for _, m := range markets {
		out = append(out, domain.Book{
			ID:            domain.BookID(groupID, m),
			BaseID:        groupID,
			Title:         title,
			Author:        author,
			Market:        m,
			Price:         strings.TrimSpace(sub.Price),
			Currency:      m.Currency(),
			AmazonLink:    strings.TrimSpace(sub.AmazonLink),
			WebsiteLink:   strings.TrimSpace(sub.WebsiteLink),
			PortfolioName: strings.TrimSpace(sub.PortfolioName),
			CoverImage:    sub.CoverImage,
			Status:        status,
			Account:       account,
			BookType:      m.BookType(),
			CreatedAt:     createdAt,
		})
	}
	return out, nil
}
