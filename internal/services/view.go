package services

import "bookfolio/internal/domain"

// ByMarket returns the books listed on m, in insertion order.
func ByMarket(books []domain.Book, m domain.Market) []domain.Book {
	out := make([]domain.Book, 0, len(books))
	for _, b := range books {
		if b.Market == m {
			out = append(out, b)
		}
	}
	return out
}

// DedupeByGroup keeps the first book seen for each group id.
func DedupeByGroup(books []domain.Book) []domain.Book {
	seen := make(map[string]struct{}, len(books))
	out := make([]domain.Book, 0, len(books))
	for _, b := range books {
		if _, ok := seen[b.BaseID]; ok {
			continue
		}
		seen[b.BaseID] = struct{}{}
		out = append(out, b)
	}
	return out
}

// Gallery is the projection the pages render. An empty market means every
// market; dedupe collapses per-market copies into one card per book.
func Gallery(books []domain.Book, m domain.Market, dedupe bool) []domain.Book {
	var out []domain.Book
	if m == "" {
		out = append(make([]domain.Book, 0, len(books)), books...)
	} else {
		out = ByMarket(books, m)
	}
	if dedupe {
		out = DedupeByGroup(out)
	}
	return out
}

// Counts tallies books per market for the tab bar.
func Counts(books []domain.Book) map[domain.Market]int {
	out := make(map[domain.Market]int, len(domain.Markets))
	for _, m := range domain.Markets {
		out[m] = 0
	}
	for _, b := range books {
		out[b.Market]++
	}
	return out
}
