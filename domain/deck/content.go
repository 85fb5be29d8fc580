package deck

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Record is one unit of generated content used to fill a single slide.
type Record map[string]interface{}

// ContentBundle is the full generated-content result for one run: section
// name to either a record or a list of records. It is owned by the run and
// read-only during slide population.
type ContentBundle map[string]interface{}

// Field returns the named value as a trimmed string, or "" when the field is
// absent. Non-string values are rendered with fmt.
func (r Record) Field(name string) string {
	v, ok := r[name]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprintf("%v", v)
	}
	return strings.TrimSpace(s)
}

// ResolveContent returns the record a slide should be filled from.
//
// A nil source yields an empty record (the slide keeps its hard-coded text).
// A section source yields bundle[section], or an empty record when absent. A
// collection source scans the named list for the first record whose match
// fields all compare equal case-insensitively after trimming whitespace; a
// miss is not an error — it degrades to an empty record, with a diagnostic
// listing the filter and the candidate values actually present.
func ResolveContent(source *SourceDef, bundle ContentBundle, logger *zap.Logger) Record {
	if source == nil {
		return Record{}
	}

	if source.Section != "" {
		if rec, ok := bundle[source.Section].(map[string]interface{}); ok {
			return Record(rec)
		}
		return Record{}
	}

	if source.Collection == "" {
		return Record{}
	}

	items, _ := bundle[source.Collection].([]interface{})
	for _, item := range items {
		rec, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		if matchesFilter(Record(rec), source.Match) {
			return Record(rec)
		}
	}

	logger.Warn("no content record matched filter",
		zap.String("collection", source.Collection),
		zap.Any("filter", source.Match),
		zap.Any("candidates", candidateValues(items, source.Match)),
	)
	return Record{}
}

func matchesFilter(rec Record, match map[string]string) bool {
	for key, want := range match {
		got := strings.ToLower(rec.Field(key))
		if got != strings.ToLower(strings.TrimSpace(want)) {
			return false
		}
	}
	return true
}

// candidateValues projects the filter keys over every list item so a miss can
// be diagnosed from the log line alone.
func candidateValues(items []interface{}, match map[string]string) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		rec, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		sample := make(map[string]interface{}, len(match))
		for key := range match {
			sample[key] = rec[key]
		}
		out = append(out, sample)
	}
	return out
}
