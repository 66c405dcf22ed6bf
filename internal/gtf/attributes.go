// Package gtf provides GTF record and attribute parsing functionality.
package gtf

import "strings"

// Attributes holds the key/value pairs extracted from a GTF attribute
// column. Keys are kept in first-occurrence order from the raw text.
// Absence of a key is distinct from an empty value: Get reports it via
// its second return.
type Attributes struct {
	keys   []string
	values map[string]string
}

// ParseWarning describes a malformed attribute entry found in strict mode.
type ParseWarning struct {
	Entry  string
	Reason string
}

// Get returns the value for key and whether the key was present.
func (a Attributes) Get(key string) (string, bool) {
	v, ok := a.values[key]
	return v, ok
}

// Keys returns the attribute keys in first-occurrence order.
func (a Attributes) Keys() []string {
	keys := make([]string, len(a.keys))
	copy(keys, a.keys)
	return keys
}

// Len returns the number of distinct keys.
func (a Attributes) Len() int {
	return len(a.keys)
}

// String re-serializes the attributes in GTF format, whitespace-normalized,
// in original key order: `key "value"; key "value";`.
func (a Attributes) String() string {
	var b strings.Builder
	for i, key := range a.keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(key)
		b.WriteString(` "`)
		b.WriteString(a.values[key])
		b.WriteString(`";`)
	}
	return b.String()
}

// ParseAttributes parses a GTF attribute column into an Attributes set.
// Format: key "value"; key "value"; ...
// Malformed entries (a key not followed by a quoted value) are skipped.
func ParseAttributes(s string) Attributes {
	attrs, _ := scanAttributes(s, false)
	return attrs
}

// ParseAttributesStrict parses like ParseAttributes but reports every
// malformed entry as a ParseWarning instead of dropping it silently.
// Malformed entries are still skipped; they are never fatal.
func ParseAttributesStrict(s string) (Attributes, []ParseWarning) {
	return scanAttributes(s, true)
}

// scanAttributes extracts all key/value pairs in a single pass over s.
// Matching is anchored on the key token followed by whitespace and an
// opening quote, so a key name that is a substring of another key name
// (e.g. "level" inside "transcript_support_level") can never match.
// If the same key appears more than once, the first occurrence wins.
func scanAttributes(s string, strict bool) (Attributes, []ParseWarning) {
	attrs := Attributes{values: make(map[string]string)}
	var warnings []ParseWarning

	warn := func(entry, reason string) {
		if strict {
			warnings = append(warnings, ParseWarning{Entry: entry, Reason: reason})
		}
	}

	i, n := 0, len(s)
	for i < n {
		// Skip whitespace and empty entries between separators.
		for i < n && (isSpace(s[i]) || s[i] == ';') {
			i++
		}
		if i >= n {
			break
		}

		// Key token runs to the first whitespace or separator.
		start := i
		for i < n && !isSpace(s[i]) && s[i] != ';' {
			i++
		}
		key := s[start:i]

		if i >= n || s[i] == ';' {
			warn(key, "key without value")
			continue
		}

		for i < n && isSpace(s[i]) {
			i++
		}

		if i >= n || s[i] != '"' {
			// Not a quoted value. Skip the rest of this entry.
			for i < n && s[i] != ';' {
				i++
			}
			warn(strings.TrimSpace(s[start:i]), "value is not quoted")
			continue
		}

		i++ // opening quote
		valStart := i
		for i < n && s[i] != '"' {
			i++
		}
		if i >= n {
			warn(strings.TrimSpace(s[start:]), "unterminated quoted value")
			break
		}
		value := s[valStart:i]
		i++ // closing quote

		if _, dup := attrs.values[key]; !dup {
			attrs.keys = append(attrs.keys, key)
			attrs.values[key] = value
		}
	}

	return attrs, warnings
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t'
}
