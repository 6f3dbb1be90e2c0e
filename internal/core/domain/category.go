package domain

import "strings"

// Known categories. Anything else is stored as given but rendered as CategoryOther.
const (
	CategoryCash        = "cash"
	CategoryCoffee      = "coffee"
	CategoryCompany     = "company"
	CategoryGasStation  = "gasstation"
	CategoryLodging     = "lodging"
	CategoryParking     = "parking"
	CategoryPharmacy    = "pharmacy"
	CategoryPolice      = "police"
	CategoryPost        = "post"
	CategoryRestaurant  = "restaurant"
	CategorySupermarket = "supermarket"
	CategoryToilet      = "toilet"
	CategoryOther       = "other"
)

// KnownCategories in display order.
var KnownCategories = []string{
	CategoryCash, CategoryCoffee, CategoryCompany, CategoryGasStation,
	CategoryLodging, CategoryParking, CategoryPharmacy, CategoryPolice,
	CategoryPost, CategoryRestaurant, CategorySupermarket, CategoryToilet,
	CategoryOther,
}

// CleanCategory trims and lowercases a category for storage and lookups.
func CleanCategory(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// IsKnownCategory reports whether s is one of KnownCategories (case-insensitive).
func IsKnownCategory(s string) bool {
	c := CleanCategory(s)
	for _, k := range KnownCategories {
		if k == c {
			return true
		}
	}
	return false
}

// NormalizeCategory returns the known category for s, or CategoryOther.
func NormalizeCategory(s string) string {
	if c := CleanCategory(s); IsKnownCategory(c) {
		return c
	}
	return CategoryOther
}
