package persistence

import (
	"strings"

	"github.com/dealerdesk/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// sortColumns whitelists the columns a listing may be ordered by, with the
// column used when the caller asks for nothing or for something unknown.
type sortColumns struct {
	allowed  map[string]bool
	fallback string
}

func newSortColumns(fallback string, columns ...string) sortColumns {
	allowed := make(map[string]bool, len(columns)+1)
	allowed[fallback] = true
	for _, c := range columns {
		allowed[c] = true
	}
	return sortColumns{allowed: allowed, fallback: fallback}
}

var (
	dealershipSort   = newSortColumns("created_at", "updated_at", "name", "status", "credit_limit", "advance_amount", "due_amount")
	planSort         = newSortColumns("price", "created_at", "name", "type", "validity_days")
	subscriptionSort = newSortColumns("created_at", "updated_at", "start_date", "end_date", "amount", "status")
	depositSort      = newSortColumns("created_at", "updated_at", "deposit_date", "amount", "status", "method")
)

// column returns requested if whitelisted, else the fallback. Input is never
// interpolated unless it matches a whitelist key exactly.
func (s sortColumns) column(requested string) string {
	requested = strings.TrimSpace(requested)
	if s.allowed[requested] {
		return requested
	}
	return s.fallback
}

// direction normalises a sort direction. Anything but asc sorts descending.
func direction(dir string) string {
	if strings.EqualFold(strings.TrimSpace(dir), "asc") {
		return "ASC"
	}
	return "DESC"
}

// orderClause builds the ORDER BY expression with id as a stable tiebreaker
func (s sortColumns) orderClause(filter shared.Filter) string {
	col := s.column(filter.OrderBy)
	clause := col + " " + direction(filter.OrderDir)
	if col != "id" {
		clause += ", id"
	}
	return clause
}

// paginate applies the filter's page window and ordering
func paginate(query *gorm.DB, filter shared.Filter, sort sortColumns) *gorm.DB {
	if limit := filter.Limit(); limit > 0 {
		query = query.Offset(filter.Offset()).Limit(limit)
	}
	return query.Order(sort.orderClause(filter))
}
