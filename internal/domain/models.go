package domain

type Market string

const (
	MarketUS Market = "us"
	MarketUK Market = "uk"
	MarketAU Market = "au"
	MarketCA Market = "ca"
	MarketDE Market = "de"
)

// Markets is the fixed marketplace list, in tab order.
var Markets = []Market{MarketUS, MarketUK, MarketAU, MarketCA, MarketDE}

// EnglishMarkets share one English-language listing.
var EnglishMarkets = []Market{MarketUS, MarketUK, MarketAU, MarketCA}

type MarketInfo struct {
	Code Market
	Name string
	Flag string
}

var marketInfo = map[Market]MarketInfo{
	MarketUS: {Code: MarketUS, Name: "United States", Flag: "🇺🇸"},
	MarketUK: {Code: MarketUK, Name: "United Kingdom", Flag: "🇬🇧"},
	MarketAU: {Code: MarketAU, Name: "Australia", Flag: "🇦🇺"},
	MarketCA: {Code: MarketCA, Name: "Canada", Flag: "🇨🇦"},
	MarketDE: {Code: MarketDE, Name: "Germany", Flag: "🇩🇪"},
}

func (m Market) Valid() bool {
	_, ok := marketInfo[m]
	return ok
}

func (m Market) Info() MarketInfo { return marketInfo[m] }

// Currency is € for the German store and $ everywhere else.
func (m Market) Currency() string {
	if m == MarketDE {
		return "€"
	}
	return "$"
}

func (m Market) BookType() BookType {
	if m == MarketDE {
		return BookTypeGerman
	}
	return BookTypeEnglish
}

type BookType string

const (
	BookTypeEnglish BookType = "english"
	BookTypeGerman  BookType = "german"
)

func (t BookType) Valid() bool { return t == BookTypeEnglish || t == BookTypeGerman }

type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

func (s Status) Valid() bool { return s == StatusActive || s == StatusArchived }

// Toggle flips active <-> archived.
func (s Status) Toggle() Status {
	if s == StatusActive {
		return StatusArchived
	}
	return StatusActive
}

// Accounts lists the publishing accounts; the first one is the default.
var Accounts = []string{"Yulii", "Alex"}

func DefaultAccount() string { return Accounts[0] }

func ValidAccount(a string) bool {
	for _, x := range Accounts {
		if x == a {
			return true
		}
	}
	return false
}

// Authors are offered as suggestions in the add form.
var Authors = []string{
	"Polly Olson",
	"Taylor Grant",
	"Ariel Mullins",
	"Dr. Rosemary Richardson",
	"Caleb North",
}

// Book is one market-scoped listing. JSON names match the persisted slot layout.
type Book struct {
	ID            string   `json:"id"`
	BaseID        string   `json:"baseId"`
	Title         string   `json:"title"`
	Author        string   `json:"author"`
	Market        Market   `json:"market"`
	Price         string   `json:"price"`
	Currency      string   `json:"currency"`
	AmazonLink    string   `json:"amazonLink"`
	WebsiteLink   string   `json:"websiteLink"`
	PortfolioName string   `json:"portfolioName"`
	CoverImage    string   `json:"coverImage"`
	Status        Status   `json:"status"`
	Account       string   `json:"account"`
	BookType      BookType `json:"bookType"`
	CreatedAt     string   `json:"createdAt"`
}

// BookID joins a group id and market into a registry-wide unique id.
func BookID(baseID string, m Market) string { return baseID + "_" + string(m) }

// Submission is what the add form posts.
type Submission struct {
	Title         string
	Author        string
	BookType      BookType
	Price         string
	AmazonLink    string
	WebsiteLink   string
	PortfolioName string
	CoverImage    string
	Status        Status
	Account       string
}

// Patch carries the fields an edit replaces; nil means unchanged.
type Patch struct {
	Title         *string
	Author        *string
	Price         *string
	AmazonLink    *string
	WebsiteLink   *string
	PortfolioName *string
	CoverImage    *string
	Status        *Status
	Account       *string
}

// Apply returns b with the present patch fields replaced.
func (p Patch) Apply(b Book) Book {
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Author != nil {
		b.Author = *p.Author
	}
	if p.Price != nil {
		b.Price = *p.Price
	}
	if p.AmazonLink != nil {
		b.AmazonLink = *p.AmazonLink
	}
	if p.WebsiteLink != nil {
		b.WebsiteLink = *p.WebsiteLink
	}
	if p.PortfolioName != nil {
		b.PortfolioName = *p.PortfolioName
	}
	if p.CoverImage != nil {
		b.CoverImage = *p.CoverImage
	}
	if p.Status != nil {
		b.Status = *p.Status
	}
	if p.Account != nil {
		b.Account = *p.Account
	}
	return b
}
