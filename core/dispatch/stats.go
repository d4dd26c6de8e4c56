package dispatch

import "github.com/trezcool/studydash/core/errlog"

const recentCount = 10

type Stats struct {
	Total      int                     `json:"total"`
	Unresolved int                     `json:"unresolved"`
	BySeverity map[errlog.Severity]int `json:"bySeverity"`
	Recent     []errlog.LogEntry       `json:"recent"`
}

// GetStats is computed from the store on every call.
// Recent holds the last appended entries, oldest first.
func (d *Dispatcher) GetStats() Stats {
	entries := d.store.All()

	stats := Stats{
		Total:      len(entries),
		BySeverity: make(map[errlog.Severity]int, len(errlog.Severities)),
	}
	for _, s := range errlog.Severities {
		stats.BySeverity[s] = 0
	}
	for _, e := range entries {
		if !e.Resolved {
			stats.Unresolved++
		}
		stats.BySeverity[e.Severity]++
	}

	start := len(entries) - recentCount
	if start < 0 {
		start = 0
	}
	stats.Recent = append([]errlog.LogEntry{}, entries[start:]...)
	return stats
}
