package postgres

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/HSL-KM/class-registration-service/internal/repositories"
)

// SharedHelpers contains common database query building used across repositories
type SharedHelpers struct {
	db *gorm.DB
}

func NewSharedHelpers(db *gorm.DB) *SharedHelpers {
	return &SharedHelpers{db: db}
}

// ApplyClassFilters applies common filters to class queries
func (h *SharedHelpers) ApplyClassFilters(query *gorm.DB, filters repositories.ClassFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.CreatedByEmail != nil {
		query = query.Where("created_by_email = ?", *filters.CreatedByEmail)
	}
	if filters.Promoted != nil {
		query = query.Where("promoted = ?", *filters.Promoted)
	}
	if filters.Search != "" {
		pattern := "%" + filters.Search + "%"
		query = query.Where("title ILIKE ?", pattern)
	}
	return query
}

// ApplyPaginationAndSort applies limit/offset and a whitelisted sort column.
func (h *SharedHelpers) ApplyPaginationAndSort(query *gorm.DB, limit, offset int, sortBy, sortOrder, defaultOrder string) *gorm.DB {
	order := defaultOrder
	if sortBy != "" {
		direction := "ASC"
		if strings.EqualFold(sortOrder, "desc") {
			direction = "DESC"
		}
		switch sortBy {
		case "created_at", "start_date", "title", "timestamp":
			order = fmt.Sprintf("%s %s", sortBy, direction)
		}
	}
	query = query.Order(order)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	return query
}
