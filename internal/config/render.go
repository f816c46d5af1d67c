package config

import (
	"fmt"
	"sort"
	"strings"
)

// splitOptions separates top-level keys from dotted section keys, keeping the
// declaration order of sections.
func splitOptions(opts []ConfigOption) (top []ConfigOption, sections map[string][]ConfigOption, order []string) {
	sections = make(map[string][]ConfigOption)
	for _, o := range opts {
		section, key, ok := strings.Cut(o.Key, ".")
		if !ok {
			top = append(top, o)
			continue
		}
		if _, seen := sections[section]; !seen {
			order = append(order, section)
		}
		sections[section] = append(sections[section], ConfigOption{Key: key, Default: o.Default, Comment: o.Comment})
	}
	return top, sections, order
}

// RenderDefaultTOML renders a TOML config with defaults from GetConfigOptions.
func RenderDefaultTOML() string {
	lines := []string{"# changelog configuration (TOML)"}
	top, sections, order := splitOptions(GetConfigOptions())
	for _, o := range top {
		lines = appendOption(lines, o)
	}
	for _, section := range order {
		lines = append(lines, "["+section+"]")
		for _, o := range sections[section] {
			lines = appendOption(lines, o)
		}
	}
	return strings.Join(lines, "\n") + "\n"
}

// UpdateTOML appends options missing from existing and comments out keys the
// schema no longer knows. It reports whether anything changed.
func UpdateTOML(existing string) (string, bool) {
	opts := GetConfigOptions()
	known := make(map[string]bool, len(opts))
	for _, o := range opts {
		known[o.Key] = true
	}

	present := make(map[string]bool)
	section := ""
	lines := strings.Split(existing, "\n")
	out := make([]string, 0, len(lines))
	changed := false
	for _, line := range lines {
		trim := strings.TrimSpace(line)
		switch {
		case trim == "", strings.HasPrefix(trim, "#"):
			out = append(out, line)
			continue
		case strings.HasPrefix(trim, "[") && strings.HasSuffix(trim, "]"):
			section = strings.TrimSpace(trim[1 : len(trim)-1])
			out = append(out, line)
			continue
		}
		key, ok := parseTOMLKey(line)
		if !ok {
			out = append(out, line)
			continue
		}
		full := key
		if section != "" {
			full = section + "." + key
		}
		present[full] = true
		if !known[full] {
			indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
			out = append(out, indent+"# OUTDATED: option removed from config schema")
			out = append(out, indent+"# "+strings.TrimLeft(line, " \t"))
			changed = true
			continue
		}
		out = append(out, line)
	}

	var missing []ConfigOption
	for _, o := range opts {
		if !present[o.Key] {
			missing = append(missing, o)
		}
	}
	if len(missing) > 0 {
		top, sections, order := splitOptions(missing)
		if len(top) > 0 {
			// Top-level keys must precede the first table header.
			var add []string
			for _, o := range top {
				add = appendOption(add, o)
			}
			at := firstTableIndex(out)
			out = append(out[:at], append(add, out[at:]...)...)
		}
		if len(order) > 0 {
			out = mergeSections(out, sections, order)
		}
		changed = true
	}
	return strings.Join(out, "\n"), changed
}

// mergeSections inserts missing keys under their existing table header, or
// appends new tables for sections the file does not have yet.
func mergeSections(lines []string, sections map[string][]ConfigOption, order []string) []string {
	pending := make(map[string]bool, len(order))
	for _, s := range order {
		pending[s] = true
	}
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, l)
		trim := strings.TrimSpace(l)
		if !strings.HasPrefix(trim, "[") || !strings.HasSuffix(trim, "]") {
			continue
		}
		name := strings.TrimSpace(trim[1 : len(trim)-1])
		if !pending[name] {
			continue
		}
		for _, o := range sections[name] {
			out = appendOption(out, o)
		}
		delete(pending, name)
	}
	if len(pending) == 0 {
		return out
	}
	out = append(out, "", "# Added by config update")
	for _, s := range order {
		if !pending[s] {
			continue
		}
		out = append(out, "["+s+"]")
		for _, o := range sections[s] {
			out = appendOption(out, o)
		}
	}
	return out
}

func firstTableIndex(lines []string) int {
	for i, l := range lines {
		if strings.HasPrefix(strings.TrimSpace(l), "[") {
			return i
		}
	}
	return len(lines)
}

func parseTOMLKey(line string) (string, bool) {
	idx := strings.Index(line, "=")
	if idx == -1 {
		return "", false
	}
	key := strings.TrimSpace(line[:idx])
	if key == "" || strings.HasPrefix(key, "[") || strings.HasPrefix(key, "\"") || strings.HasPrefix(key, "'") {
		return "", false
	}
	return key, true
}

func appendOption(lines []string, o ConfigOption) []string {
	if o.Comment != "" {
		lines = append(lines, "# "+o.Comment)
	}
	return append(lines, o.Key+" = "+formatTOMLValue(o.Default), "")
}

func formatTOMLValue(value any) string {
	switch v := value.(type) {
	case string:
		return fmt.Sprintf("%q", v)
	case bool, int, int64:
		return fmt.Sprintf("%v", v)
	case []string:
		quoted := make([]string, len(v))
		for i, s := range v {
			quoted[i] = fmt.Sprintf("%q", s)
		}
		return "[" + strings.Join(quoted, ", ") + "]"
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s = %q", k, fmt.Sprint(v[k]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprintf("%q", fmt.Sprint(v))
	}
}
