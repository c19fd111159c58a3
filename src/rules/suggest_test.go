package rules

import (
	"testing"

	"taxtrack-server/src/models"
)

func suggestCategories() []models.Category {
	return []models.Category{
		{ID: 1, Name: "Office Supplies"},
		{ID: 2, Name: "Software"},
		{ID: 3, Name: "Travel"},
		{ID: 4, Name: "Meals"},
	}
}

func TestSuggestCategoryExactMatch(t *testing.T) {
	got := SuggestCategory("software", suggestCategories())
	if got == nil || got.ID != 2 {
		t.Fatalf("got %v, want Software", got)
	}
}

func TestSuggestCategoryContains(t *testing.T) {
	// Needle inside a category name.
	got := SuggestCategory("office", suggestCategories())
	if got == nil || got.ID != 1 {
		t.Fatalf("got %v, want Office Supplies", got)
	}

	// Category name inside the needle.
	got = SuggestCategory("Software & Subscriptions", suggestCategories())
	if got == nil || got.ID != 2 {
		t.Fatalf("got %v, want Software", got)
	}
}

func TestSuggestCategoryFuzzy(t *testing.T) {
	// One OCR misread, within the distance bound.
	got := SuggestCategory("Trave1", suggestCategories())
	if got == nil || got.ID != 3 {
		t.Fatalf("got %v, want Travel", got)
	}
}

func TestSuggestCategoryNoMatch(t *testing.T) {
	if got := SuggestCategory("Veterinary", suggestCategories()); got != nil {
		t.Fatalf("got %v, want nil", got)
	}
	if got := SuggestCategory("   ", suggestCategories()); got != nil {
		t.Fatalf("got %v for blank input, want nil", got)
	}
}

func TestSuggestCategoryPrefersExactOverContains(t *testing.T) {
	categories := []models.Category{
		{ID: 1, Name: "Meals and Entertainment"},
		{ID: 2, Name: "Meals"},
	}
	got := SuggestCategory("meals", categories)
	if got == nil || got.ID != 2 {
		t.Fatalf("got %v, want the exact match", got)
	}
}
