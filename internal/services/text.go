package services

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var whitespace = regexp.MustCompile(`\s+`)

func Slugify(value string) string {
	lower := strings.ToLower(strings.TrimSpace(value))
	var b strings.Builder
	lastDash := false
	for _, r := range lower {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash {
			b.WriteRune('-')
			lastDash = true
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return uuid.NewString()
	}
	return slug
}

// sluggedTables is the set of tables ResolveSlug may query.
var sluggedTables = map[string]bool{
	"blog":     true,
	"packages": true,
}

// ResolveSlug returns the first free slug among base, base-2, base-3...
// Rows with id excludeID do not count as taken.
func ResolveSlug(ctx context.Context, q sqlx.QueryerContext, table, source, excludeID string) (string, error) {
	if !sluggedTables[table] {
		return "", ErrBadRequest("unknown slug table " + table)
	}
	base := Slugify(source)
	candidate := base
	counter := 2
	for {
		var exists bool
		var err error
		if excludeID == "" {
			err = sqlx.GetContext(ctx, q, &exists, `SELECT EXISTS(SELECT 1 FROM `+table+` WHERE slug = $1)`, candidate)
		} else {
			err = sqlx.GetContext(ctx, q, &exists, `SELECT EXISTS(SELECT 1 FROM `+table+` WHERE slug = $1 AND id <> $2)`, candidate, excludeID)
		}
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(counter)
		counter++
	}
}

func CleanSearchTerm(term string) string {
	return whitespace.ReplaceAllString(strings.TrimSpace(term), " ")
}
