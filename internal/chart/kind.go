// Package chart derives renderable chart configurations from upload rows.
package chart

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sheet-dashboard/backend/internal/models"
)

// ErrUnknownKind is returned for chart kinds outside bar, line and pie.
var ErrUnknownKind = errors.New("unknown chart kind")

var kinds = []models.ChartKind{models.ChartBar, models.ChartLine, models.ChartPie}

// Kinds lists the supported chart kinds in display order.
func Kinds() []models.ChartKind {
	return append([]models.ChartKind(nil), kinds...)
}

// ParseKind converts user input into a ChartKind.
func ParseKind(s string) (models.ChartKind, error) {
	k := models.ChartKind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}
