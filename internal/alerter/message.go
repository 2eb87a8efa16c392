package alerter

import (
	"fmt"
	"strings"

	"github.com/linnemanlabs/temblor/internal/quake"
)

// RenderMessage builds the single notification body shared by every target
// in a tick: magnitude, timestamp, reference text, and the locality intensity
// list truncated to maxLocalities entries and maxLen bytes.
func RenderMessage(e *quake.Enriched, magnitude float64, maxLocalities, maxLen int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sismo M%.1f", magnitude)
	if e.OccurredAt != "" {
		b.WriteString(" " + e.OccurredAt)
	}
	if e.Reference != "" {
		b.WriteString(" " + e.Reference)
	}

	locs := e.Localities
	if maxLocalities > 0 && len(locs) > maxLocalities {
		locs = locs[:maxLocalities]
	}
	if len(locs) > 0 {
		parts := make([]string, 0, len(locs))
		for _, l := range locs {
			if l.Intensity != "" {
				parts = append(parts, l.Name+" "+l.Intensity)
			} else {
				parts = append(parts, l.Name)
			}
		}
		b.WriteString(" | Int: " + strings.Join(parts, ", "))
	}

	return truncate(b.String(), maxLen)
}

func truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	if limit <= 3 {
		return s[:limit]
	}
	return s[:limit-3] + "..."
}
