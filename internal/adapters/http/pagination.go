package http

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/obliquemerc/internal/core/domain"
)

// RenderPage is the body of GET /v1/renders.
type RenderPage struct {
	Data       []domain.RenderRecord `json:"data"`
	Pagination Pagination            `json:"pagination"`
}

// Pagination describes the returned window and the size of the history.
type Pagination struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
	Total  int `json:"total"`
}

// pageFromQuery reads offset and limit with the same clamping the service applies.
// Malformed numbers are reported rather than defaulted.
func pageFromQuery(c *fiber.Ctx) (domain.Page, error) {
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		return domain.Page{}, err
	}
	limit, err := queryInt(c, "limit", domain.DefaultPageLimit)
	if err != nil {
		return domain.Page{}, err
	}
	return domain.NewPage(offset, limit), nil
}

func newPagination(p domain.Page, total int) Pagination {
	return Pagination{Offset: p.Offset, Limit: p.Limit, Total: total}
}

// lastOffset is the start of the final full-width page.
func (p Pagination) lastOffset() int {
	if p.Total <= 0 {
		return 0
	}
	return (p.Total - 1) / p.Limit * p.Limit
}

// links renders the RFC 8288 relations for this window. prev is omitted on the
// first page and next once the history is exhausted.
func (p Pagination) links(base string) string {
	rel := func(name string, offset int) string {
		return fmt.Sprintf(`<%s?offset=%d&limit=%d>; rel="%s"`, base, offset, p.Limit, name)
	}

	out := []string{rel("first", 0)}
	if p.Offset > 0 {
		out = append(out, rel("prev", max(p.Offset-p.Limit, 0)))
	}
	if p.Offset+p.Limit < p.Total {
		out = append(out, rel("next", p.Offset+p.Limit))
	}
	out = append(out, rel("last", p.lastOffset()))
	return strings.Join(out, ", ")
}

// SetLinkHeaders sets the Link header for a history page relative to the request path.
func SetLinkHeaders(c *fiber.Ctx, p Pagination) {
	c.Set("Link", p.links(c.Path()))
}
