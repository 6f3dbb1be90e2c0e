package http

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Pagination contains offset-based pagination info.
type Pagination struct {
	Offset int
	Limit  int
	Total  int
}

// paginate slices items when the request carries an offset and sets Link and
// X-Total-Count headers. Without an offset the items are returned unchanged.
func paginate[T any](c *fiber.Ctx, items []T, limit int) ([]T, error) {
	raw := c.Query("offset")
	if raw == "" {
		return items, nil
	}
	offset, err := strconv.Atoi(raw)
	if err != nil || offset < 0 {
		return nil, fmt.Errorf("offset must be a non-negative integer")
	}
	if limit <= 0 {
		limit = len(items)
	}

	p := Pagination{Offset: offset, Limit: limit, Total: len(items)}
	SetLinkHeaders(c, p)
	c.Set("X-Total-Count", strconv.Itoa(p.Total))

	if offset >= len(items) {
		return []T{}, nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end], nil
}

// SetLinkHeaders adds RFC 8288 Link headers for paginated responses.
// Query parameters other than offset and limit are kept.
func SetLinkHeaders(c *fiber.Ctx, p Pagination) {
	base := c.Path() + "?" + otherQueryArgs(c)
	page := func(offset int, rel string) string {
		return fmt.Sprintf(`<%soffset=%d&limit=%d>; rel="%s"`, base, offset, p.Limit, rel)
	}

	links := []string{page(0, "first")}

	if p.Offset > 0 {
		prev := p.Offset - p.Limit
		if prev < 0 {
			prev = 0
		}
		links = append(links, page(prev, "prev"))
	}

	if p.Limit > 0 && p.Offset+p.Limit < p.Total {
		links = append(links, page(p.Offset+p.Limit, "next"))
	}

	lastOffset := p.Total - p.Limit
	if lastOffset < 0 {
		lastOffset = 0
	}
	links = append(links, page(lastOffset, "last"))

	c.Set("Link", strings.Join(links, ", "))
}

func otherQueryArgs(c *fiber.Ctx) string {
	var b strings.Builder
	c.Context().QueryArgs().VisitAll(func(key, value []byte) {
		k := string(key)
		if k == "offset" || k == "limit" {
			return
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(string(value)))
		b.WriteByte('&')
	})
	return b.String()
}
