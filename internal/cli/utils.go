// Package cli provides output formatting for the wavekb command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/hyperjump/wavekb/internal/models"
)

// OutputFormat selects how command results are written.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact is one line per item, for grep and scripts.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat maps a flag value to an OutputFormat.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputText, OutputCompact, OutputJSON:
		return OutputFormat(s), nil
	case "":
		return OutputText, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text, compact, or json", s)
	}
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteSearchResults writes search results to w in the given format.
// Unknown formats are treated as text.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return WriteJSON(w, response)
	case OutputCompact:
		for _, r := range response.Results {
			fmt.Fprintf(w, "%d\t%.4f\t%s\t%s\n", r.Rank, r.Resonance, r.ID, metadataSummary(r.Pattern, 80))
		}
		return nil
	default:
		writeSearchResultsText(w, response)
		return nil
	}
}

func writeSearchResultsText(w io.Writer, response *models.SearchResponse) {
	fmt.Fprintf(w, "\nFound %d resonant patterns in %dµs (%d scanned, showing %d)\n\n",
		response.Total, response.QueryTime, response.Scanned, len(response.Results))
	for _, r := range response.Results {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "Rank: %d | Resonance: %.4f\n", r.Rank, r.Resonance)
		fmt.Fprintf(w, "ID: %s\n", r.ID)
		if b := r.Breakdown; b != nil {
			fmt.Fprintf(w, "Orientation: %.4f  Frequency: %.4f  Phase: %.4f  Energy: %.4f  Interference: %.4f\n",
				b.OrientationAlignment, b.FrequencyMatching, b.PhaseCoherence, b.EnergyCompatibility, b.InterferencePattern)
		}
		if r.Pattern != nil {
			writePatternSummary(w, r.Pattern)
		}
		fmt.Fprintln(w)
	}
}

// WritePattern writes a single pattern.
func WritePattern(w io.Writer, p *models.WavePattern, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return WriteJSON(w, p)
	case OutputCompact:
		fmt.Fprintln(w, compactPattern(p))
		return nil
	default:
		fmt.Fprintf(w, "ID: %s\n", p.ID)
		writePatternSummary(w, p)
		fmt.Fprintf(w, "Created: %s  Updated: %s\n", p.CreatedAt.Format("2006-01-02 15:04:05"), p.UpdatedAt.Format("2006-01-02 15:04:05"))
		return nil
	}
}

// WritePatterns writes a page of patterns with the store total.
func WritePatterns(w io.Writer, patterns []*models.WavePattern, total int, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return WriteJSON(w, map[string]interface{}{"patterns": patterns, "total": total})
	case OutputCompact:
		for _, p := range patterns {
			fmt.Fprintln(w, compactPattern(p))
		}
		return nil
	default:
		fmt.Fprintf(w, "%d of %d patterns\n\n", len(patterns), total)
		for _, p := range patterns {
			fmt.Fprintf(w, "%s  energy=%.4f depth=%d  %s\n", p.ID, p.Energy, p.ExpansionDepth, metadataSummary(p, 60))
		}
		return nil
	}
}

// WriteAbsorb writes the outcome of an absorption.
func WriteAbsorb(w io.Writer, resp *models.AbsorbResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return WriteJSON(w, resp)
	case OutputCompact:
		fmt.Fprintln(w, compactPattern(resp.Pattern))
		return nil
	default:
		p := resp.Pattern
		fmt.Fprintf(w, "%s absorbed %d source(s)\n", p.ID, resp.SourcesApplied)
		fmt.Fprintf(w, "Energy: %.4f -> %.4f\n", resp.EnergyBefore, p.Energy)
		fmt.Fprintf(w, "Depth:  %d -> %d\n", resp.DepthBefore, p.ExpansionDepth)
		writePatternSummary(w, p)
		return nil
	}
}

func writePatternSummary(w io.Writer, p *models.WavePattern) {
	q := p.Orientation
	fmt.Fprintf(w, "Orientation: [%.4f, %.4f, %.4f, %.4f]\n", q.W, q.X, q.Y, q.Z)
	fmt.Fprintf(w, "Energy: %.4f  Frequency: %.4f  Phase: %.4f  Depth: %d\n", p.Energy, p.Frequency, p.Phase, p.ExpansionDepth)
	if len(p.AbsorbedIDs) > 0 {
		fmt.Fprintf(w, "Absorbed: %s\n", Truncate(strings.Join(p.AbsorbedIDs, ", "), 200))
	}
	if len(p.Metadata) > 0 {
		fmt.Fprintf(w, "Metadata: %s\n", metadataSummary(p, 200))
	}
}

func compactPattern(p *models.WavePattern) string {
	return fmt.Sprintf("%s\t%.4f\t%.4f\t%.4f\t%d\t%s", p.ID, p.Energy, p.Frequency, p.Phase, p.ExpansionDepth, metadataSummary(p, 80))
}

// metadataSummary renders metadata as sorted key=value pairs.
func metadataSummary(p *models.WavePattern, maxLen int) string {
	if p == nil || len(p.Metadata) == 0 {
		return ""
	}
	keys := make([]string, 0, len(p.Metadata))
	for k := range p.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		v, err := json.Marshal(p.Metadata[k])
		if err != nil {
			v = []byte("?")
		}
		parts[i] = k + "=" + string(v)
	}
	return Truncate(strings.Join(parts, " "), maxLen)
}

// ParseEmbedding parses a comma-separated list of numbers.
func ParseEmbedding(s string) ([]float64, error) {
	fields := strings.Split(s, ",")
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid embedding value %q", f)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("embedding is empty")
	}
	return out, nil
}

// Truncate truncates s to maxLen and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
