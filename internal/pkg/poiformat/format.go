// Package poiformat renders point-of-interest text for map popups.
// All output is HTML-escaped except for the markup this package emits itself.
package poiformat

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/samirrijal/poimap/internal/core/domain"
)

// Maximum lengths, in characters, applied before escaping.
const (
	MaxHrefLength  = 200
	MaxPhoneLength = 50
	MaxTextLength  = 2000
	MaxNameLength  = 100
)

const (
	iconPhone = `<i class="bi bi-telephone"></i>`
	iconLink  = `<i class="bi bi-link-45deg"></i>`
)

var (
	safeURLPattern     = regexp.MustCompile(`(?i)^(https?://|www\.)`)
	inlineSpacePattern = regexp.MustCompile(`[^\S\r\n]+`)
	chunkSeparator     = regexp.MustCompile(`, |\n`)

	htmlEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#39;",
	)
)

var categoryIcons = map[string]string{
	domain.CategoryCash:        "bi-credit-card",
	domain.CategoryCoffee:      "bi-cup-hot",
	domain.CategoryCompany:     "bi-building",
	domain.CategoryGasStation:  "bi-fuel-pump",
	domain.CategoryLodging:     "bi-house",
	domain.CategoryParking:     "bi-car-front",
	domain.CategoryPharmacy:    "bi-plus-square",
	domain.CategoryPolice:      "bi-shield-check",
	domain.CategoryPost:        "bi-mailbox",
	domain.CategoryRestaurant:  "bi-cup-hot",
	domain.CategorySupermarket: "bi-shop",
	domain.CategoryToilet:      "bi-person-standing",
}

const defaultIcon = "bi-geo-alt"

// SanitizeText trims s, normalizes CRLF, collapses inline whitespace,
// truncates to max characters and HTML-escapes the result.
func SanitizeText(s string, max int) string {
	t := strings.TrimSpace(s)
	if t == "" {
		return ""
	}
	t = strings.ReplaceAll(t, "\r\n", "\n")
	t = inlineSpacePattern.ReplaceAllString(t, " ")
	if max >= 0 && utf8.RuneCountInString(t) > max {
		t = string([]rune(t)[:max])
	}
	return htmlEscaper.Replace(t)
}

// IsSafeURL reports whether s starts with http://, https:// or www. (any case).
func IsSafeURL(s string) bool {
	return safeURLPattern.MatchString(s)
}

// CategoryIcon returns the Bootstrap icon class for a category.
func CategoryIcon(category string) string {
	if icon, ok := categoryIcons[domain.CleanCategory(category)]; ok {
		return icon
	}
	return defaultIcon
}

// FormatDetails splits details on ", " and newlines and renders each chunk:
// links get a link icon and an anchor, phone numbers a phone icon, and
// everything else is escaped. Chunks are joined with <br>.
func FormatDetails(details string) string {
	if details == "" {
		return ""
	}

	var out []string
	for _, chunk := range chunkSeparator.Split(details, -1) {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		if IsSafeURL(chunk) {
			out = append(out, formatLink(chunk))
			continue
		}
		out = append(out, formatPhone(chunk))
	}
	return strings.Join(out, "<br>")
}

func formatLink(text string) string {
	href := text
	if !strings.HasPrefix(strings.ToLower(href), "http") {
		href = "https://" + href
	}
	safe := SanitizeText(href, MaxHrefLength)
	return iconLink + ` <a href="` + safe + `" target="_blank" rel="noopener noreferrer">` + safe + `</a>`
}

func formatPhone(text string) string {
	switch {
	case strings.HasPrefix(text, "+49"):
		return iconPhone + " " + SanitizeText(text, MaxPhoneLength)
	case strings.HasPrefix(text, "Tel.:"):
		num := strings.TrimSpace(strings.TrimPrefix(text, "Tel.:"))
		return iconPhone + " " + SanitizeText(num, MaxPhoneLength)
	default:
		return SanitizeText(text, MaxTextLength)
	}
}

// Popup renders the marker popup: category icon, line break, formatted details.
func Popup(category, details string) string {
	return `<i class="` + CategoryIcon(category) + `"></i><br>` + FormatDetails(details)
}
