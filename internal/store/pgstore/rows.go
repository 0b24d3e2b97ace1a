package pgstore

import (
	"errors"
	"strings"

	"github.com/facilidevis/facilidevis/internal/common"
)

// prefixed qualifies every column of a comma-separated list with alias.
func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

func isNotFound(err error) bool {
	return errors.Is(err, common.ErrNotFound)
}
