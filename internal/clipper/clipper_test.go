package clipper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

const tablePage = `
<html>
	<head><title>Site name</title><script>alert('bad');</script></head>
	<body>
		<h1>Ciorba de legume</h1>
		<div class="ads"><table><tr><td>Buy</td><td>1</td><td>stuff</td></tr></table></div>
		<table>
			<tr><th>Ingredient</th><th>Qty</th><th>Unit</th></tr>
			<tr><td>Cartofi</td><td>0,2</td><td>kg</td></tr>
			<tr><td>  Morcovi
				</td><td>0.05</td><td>kg</td></tr>
			<tr><td>Sare</td><td>dupa gust</td><td>g</td></tr>
		</table>
		<footer>Copyright 2024</footer>
	</body>
</html>`

func TestParseFood(t *testing.T) {
	t.Run("Table", func(t *testing.T) {
		food, err := ParseFood(strings.NewReader(tablePage))
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if food.Name != "Ciorba de legume" {
			t.Errorf("Expected name 'Ciorba de legume', got '%s'", food.Name)
		}
		if len(food.Ingredients) != 2 {
			t.Fatalf("Expected 2 ingredients, got %d: %+v", len(food.Ingredients), food.Ingredients)
		}
		first := food.Ingredients[0]
		if first.Name != "Cartofi" || first.Unit != "kg" || !first.Quantity.Equal(decimal.RequireFromString("0.2")) {
			t.Errorf("Expected (Cartofi, kg, 0.2), got %+v", first)
		}
		if food.Ingredients[1].Name != "Morcovi" {
			t.Errorf("Expected whitespace to be collapsed, got '%s'", food.Ingredients[1].Name)
		}
		if len(food.Skipped) != 1 || !strings.Contains(food.Skipped[0], "Sare") {
			t.Errorf("Expected the Sare row to be skipped, got %v", food.Skipped)
		}
	})

	t.Run("ListItemsWithYield", func(t *testing.T) {
		page := `<html><body>
			<h2 itemprop="name">Clatite</h2>
			<span itemprop="recipeYield">4 portii</span>
			<ul>
				<li data-quantity="0.4" data-unit="l">Lapte</li>
				<li data-quantity="2" data-unit="buc">Oua</li>
			</ul>
		</body></html>`
		food, err := ParseFood(strings.NewReader(page))
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if food.Name != "Clatite" || food.Servings != 4 {
			t.Errorf("Expected Clatite for 4, got %s for %d", food.Name, food.Servings)
		}
		if !food.Ingredients[0].Quantity.Equal(decimal.RequireFromString("0.1")) {
			t.Errorf("Expected per-person quantity 0.1, got %s", food.Ingredients[0].Quantity)
		}
		if !food.Ingredients[1].Quantity.Equal(decimal.RequireFromString("0.5")) {
			t.Errorf("Expected per-person quantity 0.5, got %s", food.Ingredients[1].Quantity)
		}
	})

	t.Run("NoIngredients", func(t *testing.T) {
		_, err := ParseFood(strings.NewReader(`<html><body><h1>Empty</h1><p>Nothing here</p></body></html>`))
		if !errors.Is(err, ErrNoIngredients) {
			t.Errorf("Expected ErrNoIngredients, got %v", err)
		}
	})

	t.Run("NoTitle", func(t *testing.T) {
		_, err := ParseFood(strings.NewReader(`<html><body><table><tr><td>A</td><td>1</td><td>g</td></tr></table></body></html>`))
		if !errors.Is(err, ErrNoTitle) {
			t.Errorf("Expected ErrNoTitle, got %v", err)
		}
	})
}

func TestClipURL(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(tablePage))
	}))
	defer ts.Close()

	c := NewClipper(ts.Client())

	t.Run("Success", func(t *testing.T) {
		food, err := c.ClipURL(context.Background(), ts.URL+"/ciorba")
		if err != nil {
			t.Fatalf("ClipURL failed: %v", err)
		}
		if food.Name != "Ciorba de legume" {
			t.Errorf("Expected title 'Ciorba de legume', got '%s'", food.Name)
		}
		for _, ing := range food.Ingredients {
			if ing.Name == "Buy" {
				t.Error("Failed to remove .ads content")
			}
		}
	})

	t.Run("BadStatus", func(t *testing.T) {
		if _, err := c.ClipURL(context.Background(), ts.URL+"/missing"); err == nil {
			t.Error("Expected an error for a 404 page")
		}
	})
}
