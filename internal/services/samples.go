package services

import (
	_ "embed"
	"time"

	"bookfolio/internal/domain"

	"gopkg.in/yaml.v3"
)

//go:embed samples.yaml
var samplesYAML []byte

type sampleBook struct {
	ID            string `yaml:"id"`
	BaseID        string `yaml:"baseId"`
	Title         string `yaml:"title"`
	Author        string `yaml:"author"`
	Market        string `yaml:"market"`
	Price         string `yaml:"price"`
	AmazonLink    string `yaml:"amazonLink"`
	WebsiteLink   string `yaml:"websiteLink"`
	PortfolioName string `yaml:"portfolioName"`
	Account       string `yaml:"account"`
}

// SampleBooks returns the built-in starter set stamped with now.
func SampleBooks(now time.Time) []domain.Book {
	var raw []sampleBook
	if err := yaml.Unmarshal(samplesYAML, &raw); err != nil {
		panic("services: bad embedded samples.yaml: " + err.Error())
	}
	createdAt := now.UTC().Format(time.RFC3339)
	out := make([]domain.Book, 0, len(raw))
	for _, s := range raw {
		out = append(out, Normalize(domain.Book{
			ID:            s.ID,
			BaseID:        s.BaseID,
			Title:         s.Title,
			Author:        s.Author,
			Market:        domain.Market(s.Market),
			Price:         s.Price,
			AmazonLink:    s.AmazonLink,
			WebsiteLink:   s.WebsiteLink,
			PortfolioName: s.PortfolioName,
			Status:        domain.StatusActive,
			Account:       s.Account,
			CreatedAt:     createdAt,
		}))
	}
	return out
}
