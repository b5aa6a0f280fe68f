package validate

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"bookfolio/internal/domain"
)

var (
	reID     = regexp.MustCompile(`^[A-Za-z0-9_-]{1,80}$`)
	reMarket = regexp.MustCompile(`^[a-z]{2}$`)
)

// ID validates a record or group identifier.
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// Market validates a market code. Upper-case input is folded.
func Market(s string) (domain.Market, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if !reMarket.MatchString(s) {
		return "", false
	}
	m := domain.Market(s)
	return m, m.Valid()
}

// MarketOrAll accepts a market code or "all", which maps to the empty market.
func MarketOrAll(s string) (domain.Market, bool) {
	if strings.EqualFold(strings.TrimSpace(s), "all") {
		return "", true
	}
	return Market(s)
}

// BookType returns the zero value for anything but english/german.
func BookType(s string) domain.BookType {
	t := domain.BookType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return ""
	}
	return t
}

// Status accepts the legacy "archive" spelling.
func Status(s string) (domain.Status, bool) {
	st := domain.Status(strings.ToLower(strings.TrimSpace(s)))
	if st == "archive" {
		st = domain.StatusArchived
	}
	return st, st.Valid()
}

func Account(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, domain.ValidAccount(s)
}

// Text trims s and cuts it to max bytes on a rune boundary.
func Text(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// Flag reads checkbox-ish query values.
func Flag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}
