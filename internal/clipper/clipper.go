package clipper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"meal-ledger/internal/catalog"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
)

var (
	// ErrNoTitle is returned when a page has no usable food name.
	ErrNoTitle = errors.New("no food name found")
	// ErrNoIngredients is returned when a page has no parsable ingredient rows.
	ErrNoIngredients = errors.New("no ingredients found")
)

// Clipper fetches recipe pages and turns them into catalog foods.
type Clipper struct {
	client *http.Client
}

// ClippedFood is a food extracted from a page, ready for catalog.AddFood.
type ClippedFood struct {
	Name        string                    `json:"name"`
	Servings    int                       `json:"servings"`
	Ingredients []catalog.IngredientInput `json:"ingredients"`
	// Skipped holds rows that could not be parsed.
	Skipped []string `json:"skipped,omitempty"`
}

// NewClipper creates a new Clipper. A nil client gets a 15 second timeout.
func NewClipper(client *http.Client) *Clipper {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Clipper{client: client}
}

// ClipURL fetches the URL and extracts a food from it.
func (c *Clipper) ClipURL(ctx context.Context, url string) (ClippedFood, error) {
	doc, err := c.fetchAndClean(ctx, url)
	if err != nil {
		return ClippedFood{}, fmt.Errorf("failed to fetch content: %w", err)
	}
	return extract(doc)
}

// ParseFood extracts a food from an HTML document.
//
// The name comes from [itemprop=name], the first h1 or the title, in that
// order. Ingredients come from list items carrying data-quantity and
// data-unit, or from table rows of name, quantity and unit cells.
// Quantities are divided by the recipe yield when one is given, so the
// result is per person.
func ParseFood(r io.Reader) (ClippedFood, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return ClippedFood{}, fmt.Errorf("failed to parse HTML: %w", err)
	}
	clean(doc)
	return extract(doc)
}

func (c *Clipper) fetchAndClean(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}
	clean(doc)
	return doc, nil
}

func clean(doc *goquery.Document) {
	doc.Find("script, style, nav, footer, iframe, ads, .ads, #ads").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})
}

func extract(doc *goquery.Document) (ClippedFood, error) {
	food := ClippedFood{Name: findTitle(doc), Servings: findServings(doc)}
	if food.Name == "" {
		return ClippedFood{}, ErrNoTitle
	}

	add := func(name, qty, unit, raw string) {
		q, err := parseQuantity(qty)
		if name == "" || err != nil {
			food.Skipped = append(food.Skipped, collapse(raw))
			return
		}
		if food.Servings > 1 {
			q = q.DivRound(decimal.NewFromInt(int64(food.Servings)), 4)
		}
		food.Ingredients = append(food.Ingredients, catalog.IngredientInput{Name: name, Unit: unit, Quantity: q})
	}

	doc.Find("li[data-quantity]").Each(func(i int, s *goquery.Selection) {
		qty, _ := s.Attr("data-quantity")
		unit, _ := s.Attr("data-unit")
		add(collapse(s.Text()), qty, strings.TrimSpace(unit), s.Text())
	})

	if len(food.Ingredients) == 0 {
		doc.Find("table tr").Each(func(i int, row *goquery.Selection) {
			cells := row.Find("td")
			if cells.Length() < 3 {
				return
			}
			add(
				collapse(cells.Eq(0).Text()),
				cells.Eq(1).Text(),
				collapse(cells.Eq(2).Text()),
				row.Text(),
			)
		})
	}

	if len(food.Ingredients) == 0 {
		return ClippedFood{}, fmt.Errorf("%w in %q", ErrNoIngredients, food.Name)
	}
	return food, nil
}

func findTitle(doc *goquery.Document) string {
	for _, sel := range []string{"[itemprop=name]", "h1", "title"} {
		if t := collapse(doc.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	return ""
}

var digits = regexp.MustCompile(`\d+`)

func findServings(doc *goquery.Document) int {
	s := doc.Find("[itemprop=recipeYield], [data-servings]").First()
	if s.Length() == 0 {
		return 0
	}
	text, ok := s.Attr("data-servings")
	if !ok {
		text = s.Text()
	}
	n, err := strconv.Atoi(digits.FindString(text))
	if err != nil || n < 1 {
		return 0
	}
	return n
}

// parseQuantity accepts both "0.25" and "0,25".
func parseQuantity(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	q, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if q.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("negative quantity %s", s)
	}
	return q, nil
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
