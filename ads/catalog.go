package ads

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"

	"github.com/liamcoop/wardline/internal/logger"
)

// Type is the service category an advertisement belongs to
type Type string

const (
	TypeLawnCare  Type = "lawn-care"
	TypeChildCare Type = "child-care"
	TypePlumbing  Type = "plumbing"
)

// DefaultSampleSize is how many ads Random returns when asked for zero or fewer
const DefaultSampleSize = 3

// Valid reports whether t is a known advertisement type
func (t Type) Valid() bool {
	switch t {
	case TypeLawnCare, TypeChildCare, TypePlumbing:
		return true
	}
	return false
}

// Advertisement is a local business listing shown next to ward pages
type Advertisement struct {
	ID           int      `json:"id"`
	Type         Type     `json:"type"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	BusinessName string   `json:"businessName"`
	Owner        string   `json:"owner"`
	Phone        string   `json:"phone"`
	Email        string   `json:"email"`
	Website      string   `json:"website"`
	Address      string   `json:"address"`
	ServiceArea  string   `json:"serviceArea"`
	Rating       float64  `json:"rating"`
	ReviewCount  int      `json:"reviewCount"`
	PriceRange   string   `json:"priceRange"`
	Services     []string `json:"services"`
	Image        string   `json:"image"`
	PromoCode    string   `json:"promoCode"`
	Discount     string   `json:"discount"`
}

// Catalog reads advertisements from a JSON file on every call
type Catalog struct {
	path    string
	shuffle func(n int, swap func(i, j int))
}

// NewCatalog creates a catalog backed by the file at path
func NewCatalog(path string) *Catalog {
	return &Catalog{path: path, shuffle: rand.Shuffle}
}

// Load returns every advertisement; read failures are logged and yield an empty list
func (c *Catalog) Load(ctx context.Context) []Advertisement {
	ads, err := c.load(ctx)
	if err != nil {
		logger.Error("Error loading ad data", "error", err, "path", c.path)
		return []Advertisement{}
	}
	return ads
}

func (c *Catalog) load(ctx context.Context) ([]Advertisement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ad catalog: %w", err)
	}

	var body struct {
		Advertisements []Advertisement `json:"advertisements"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("failed to parse ad catalog: %w", err)
	}
	return body.Advertisements, nil
}

// ByType returns the ads of one category in catalog order
func (c *Catalog) ByType(ctx context.Context, t Type) []Advertisement {
	matches := []Advertisement{}
	for _, ad := range c.Load(ctx) {
		if ad.Type == t {
			matches = append(matches, ad)
		}
	}
	return matches
}

// Random returns up to count ads in random order
func (c *Catalog) Random(ctx context.Context, count int) []Advertisement {
	if count <= 0 {
		count = DefaultSampleSize
	}

	all := c.Load(ctx)
	c.shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })

	if count > len(all) {
		count = len(all)
	}
	return all[:count]
}
