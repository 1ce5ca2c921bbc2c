package module

import (
	"fmt"
	"strings"
)

// Info is a module's parsed `[Info]{...}` manifest block (spec.md §6).
type Info struct {
	Name           string
	Version        string
	Author         string
	License        string
	Dependencies   []string
	Category       string
	MinCHTLVersion string
	MaxCHTLVersion string
}

// Export is one `[Export]` entry: a Template/Custom definition kind
// (e.g. "Custom"), its sort ("@Style", "@Element", "@Var"), and the
// names a module exposes under it.
type Export struct {
	DefKind string
	Sort    string
	Names   []string
}

// Manifest is a parsed info/NAME.chtl (spec.md §6).
type Manifest struct {
	Info    Info
	Exports []Export
}

// ParseManifest parses an `[Info]{...}` block and an optional
// `[Export]{...}` block out of raw manifest source. The manifest
// grammar is a small, self-contained key=value/declaration DSL, not
// general CHTL — a dedicated scanner here is the correct, spec-
// sanctioned choice the same way internal/scanner hand-rolls its own
// boundary logic rather than reusing a generic tokenizer.
func ParseManifest(raw string) (Manifest, error) {
	var m Manifest

	infoBody, err := extractBlock(raw, "[Info]")
	if err != nil {
		return m, fmt.Errorf("module: %w", err)
	}
	m.Info = parseInfo(infoBody)

	if exportBody, err := extractBlock(raw, "[Export]"); err == nil {
		m.Exports = parseExports(exportBody)
	}

	return m, nil
}

// extractBlock finds `marker` and returns the contents of the balanced
// `{...}` block that follows it.
func extractBlock(raw, marker string) (string, error) {
	idx := strings.Index(raw, marker)
	if idx < 0 {
		return "", fmt.Errorf("missing %s block", marker)
	}
	rest := raw[idx+len(marker):]
	open := strings.IndexByte(rest, '{')
	if open < 0 {
		return "", fmt.Errorf("%s has no opening '{'", marker)
	}
	depth := 0
	for i := open; i < len(rest); i++ {
		switch rest[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return rest[open+1 : i], nil
			}
		}
	}
	return "", fmt.Errorf("%s block is not closed", marker)
}

// parseInfo parses `key = value;` statements, where value is either a
// double-quoted string or a bare, comma-separated identifier list (for
// `dependencies`).
func parseInfo(body string) Info {
	var info Info
	for _, stmt := range splitStatements(body) {
		key, value, ok := splitAssignment(stmt)
		if !ok {
			continue
		}
		switch key {
		case "name":
			info.Name = value
		case "version":
			info.Version = value
		case "author":
			info.Author = value
		case "license":
			info.License = value
		case "category":
			info.Category = value
		case "minCHTLVersion":
			info.MinCHTLVersion = value
		case "maxCHTLVersion":
			info.MaxCHTLVersion = value
		case "dependencies":
			info.Dependencies = splitList(value)
		}
	}
	return info
}

// parseExports parses `[Custom] @Style A, B;` / `[Template] @Element C;`
// declarations.
func parseExports(body string) []Export {
	var exports []Export
	for _, stmt := range splitStatements(body) {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if !strings.HasPrefix(stmt, "[") {
			continue
		}
		closeIdx := strings.IndexByte(stmt, ']')
		if closeIdx < 0 {
			continue
		}
		defKind := stmt[1:closeIdx]
		rest := strings.TrimSpace(stmt[closeIdx+1:])
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			continue
		}
		sort := fields[0]
		names := splitList(strings.Join(fields[1:], " "))
		exports = append(exports, Export{DefKind: defKind, Sort: sort, Names: names})
	}
	return exports
}

// splitStatements splits body on `;`, ignoring semicolons inside a
// quoted string.
func splitStatements(body string) []string {
	var stmts []string
	var cur strings.Builder
	inString := false
	for i := 0; i < len(body); i++ {
		b := body[i]
		if b == '"' {
			inString = !inString
		}
		if b == ';' && !inString {
			stmts = append(stmts, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteByte(b)
	}
	if strings.TrimSpace(cur.String()) != "" {
		stmts = append(stmts, cur.String())
	}
	return stmts
}

func splitAssignment(stmt string) (key, value string, ok bool) {
	eq := strings.IndexByte(stmt, '=')
	if eq < 0 {
		return "", "", false
	}
	key = strings.TrimSpace(stmt[:eq])
	value = unquote(strings.TrimSpace(stmt[eq+1:]))
	return key, value, key != ""
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

func splitList(s string) []string {
	s = unquote(s)
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
