package repository

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Page is an offset/limit window. A zero Limit means no limit.
type Page struct {
	Offset int
	Limit  int
}

// Sort orders by a whitelisted column. Field is validated before reaching the repository.
type Sort struct {
	Field string
	Desc  bool
}

func applyPage(db *gorm.DB, p Page) *gorm.DB {
	if p.Limit > 0 {
		db = db.Limit(p.Limit)
	}
	if p.Offset > 0 {
		db = db.Offset(p.Offset)
	}
	return db
}

func applySort(db *gorm.DB, table string, s Sort, fallback Sort) *gorm.DB {
	if s.Field == "" {
		s = fallback
	}
	db = db.Order(clause.OrderByColumn{Column: clause.Column{Table: table, Name: s.Field}, Desc: s.Desc})
	// deterministic tie-break
	if s.Field != "id" {
		db = db.Order(clause.OrderByColumn{Column: clause.Column{Table: table, Name: "id"}})
	}
	return db
}

// likePattern builds a case-insensitive substring pattern usable with LOWER(col) LIKE ?.
func likePattern(term string) string {
	term = strings.ToLower(strings.TrimSpace(term))
	replacer := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return "%" + replacer.Replace(term) + "%"
}

// searchAny matches term against any of the columns, case-insensitively.
func searchAny(db *gorm.DB, term string, columns ...string) *gorm.DB {
	if strings.TrimSpace(term) == "" || len(columns) == 0 {
		return db
	}
	pattern := likePattern(term)
	parts := make([]string, 0, len(columns))
	args := make([]any, 0, len(columns))
	for _, col := range columns {
		parts = append(parts, "LOWER("+col+") LIKE ? ESCAPE '\\'")
		args = append(args, pattern)
	}
	return db.Where("("+strings.Join(parts, " OR ")+")", args...)
}

// ActiveCounts is the {total, active, inactive} triple returned by stats endpoints.
type ActiveCounts struct {
	Total    int64 `json:"total"`
	Active   int64 `json:"active"`
	Inactive int64 `json:"inactive"`
}

func countActive(db *gorm.DB, model any, column string) (ActiveCounts, error) {
	var c ActiveCounts
	if err := db.Session(&gorm.Session{}).Model(model).Count(&c.Total).Error; err != nil {
		return c, err
	}
	if err := db.Session(&gorm.Session{}).Model(model).Where(column+" = ?", true).Count(&c.Active).Error; err != nil {
		return c, err
	}
	c.Inactive = c.Total - c.Active
	return c, nil
}
