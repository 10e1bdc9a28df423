package phitsdoc

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrMalformed is returned when the text cannot be shaped into sections at
// all. The parser never returns a partial document alongside it.
var ErrMalformed = errors.New("phitsdoc: malformed document")

var (
	headerRe    = regexp.MustCompile(`^\s*\[(.*)\]\s*$`)
	materialRe  = regexp.MustCompile(`^mat\[(\d+)\]$`)
	transformRe = regexp.MustCompile(`^(\*?)tr(\d+)$`)
)

// normalizeName lowercases an unspaced section name for comparisons.
func normalizeName(name string) string {
	return strings.ToLower(name)
}

// Parse reads a deck into a Document. Only the structural subset is
// interpreted: section headers, identified entity lines, and cell reference
// tokens. Anything else inside a recognized section is preserved verbatim,
// attached to the nearest preceding entity (or the section preamble).
func Parse(text string) (*Document, error) {
	doc := &Document{}
	var cur *Section
	var curType EntityType

	for i, raw := range strings.Split(text, "\n") {
		lineNo := i + 1

		if m := headerRe.FindStringSubmatch(raw); m != nil {
			name := strings.ReplaceAll(m[1], " ", "")
			if name == "" {
				return nil, fmt.Errorf("%w: line %d: empty section header", ErrMalformed, lineNo)
			}
			doc.Sections = append(doc.Sections, Section{Name: name})
			cur = &doc.Sections[len(doc.Sections)-1]
			curType = sectionEntityType(name)
			continue
		}

		if cur == nil {
			if strings.TrimSpace(raw) == "" {
				continue
			}
			return nil, fmt.Errorf("%w: line %d: content before first section header", ErrMalformed, lineNo)
		}

		if curType == TypeOpaque {
			appendOpaque(cur, raw)
			continue
		}

		if strings.TrimSpace(raw) == "" {
			continue // blank lines inside entity sections are separators
		}

		if ent, ok := parseEntityLine(curType, raw); ok {
			cur.Entities = append(cur.Entities, ent)
			continue
		}

		// Unrecognized content: keep it verbatim on the nearest entity.
		if n := len(cur.Entities); n > 0 {
			cur.Entities[n-1].Extra = append(cur.Entities[n-1].Extra, raw)
		} else {
			cur.Preamble = append(cur.Preamble, raw)
		}
	}

	trimOpaqueTails(doc)
	return doc, nil
}

// appendOpaque adds a verbatim line to the single opaque entity of a section,
// creating it on first use.
func appendOpaque(s *Section, raw string) {
	if len(s.Entities) == 0 {
		s.Entities = append(s.Entities, Entity{Type: TypeOpaque})
	}
	s.Entities[0].Extra = append(s.Entities[0].Extra, raw)
}

// trimOpaqueTails removes trailing blank lines from opaque blocks; the
// serializer re-emits the structural blank separator between sections.
func trimOpaqueTails(doc *Document) {
	for si := range doc.Sections {
		for ei := range doc.Sections[si].Entities {
			e := &doc.Sections[si].Entities[ei]
			if e.Type != TypeOpaque {
				continue
			}
			for len(e.Extra) > 0 && strings.TrimSpace(e.Extra[len(e.Extra)-1]) == "" {
				e.Extra = e.Extra[:len(e.Extra)-1]
			}
			if len(e.Extra) == 0 {
				doc.Sections[si].Entities = nil
			}
		}
	}
}

// parseEntityLine attempts to read one entity-start line of the given type.
func parseEntityLine(t EntityType, raw string) (Entity, bool) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return Entity{}, false
	}

	switch t {
	case TypeMaterial:
		m := materialRe.FindStringSubmatch(fields[0])
		if m == nil {
			return Entity{}, false
		}
		id, _ := strconv.Atoi(m[1])
		return Entity{Type: TypeMaterial, ID: id, Body: restAfterField(raw, fields[0])}, true

	case TypeTransform:
		m := transformRe.FindStringSubmatch(fields[0])
		if m == nil {
			return Entity{}, false
		}
		id, _ := strconv.Atoi(m[2])
		return Entity{Type: TypeTransform, ID: id, Star: m[1] == "*", Body: restAfterField(raw, fields[0])}, true

	case TypeSurface:
		id, err := strconv.Atoi(fields[0])
		if err != nil || id <= 0 {
			return Entity{}, false
		}
		return Entity{Type: TypeSurface, ID: id, Body: restAfterField(raw, fields[0])}, true

	case TypeCell:
		return parseCellLine(raw, fields)
	}

	return Entity{}, false
}

// parseCellLine reads "ID MATERIAL [DENSITY] GEOM... [$ comment]". A line
// whose first two fields are not both integers is not an entity start; it
// stays verbatim with the preceding entity (wrapped geometry from foreign
// decks survives that way, untokenized).
func parseCellLine(raw string, fields []string) (Entity, bool) {
	if len(fields) < 2 {
		return Entity{}, false
	}
	id, err := strconv.Atoi(fields[0])
	if err != nil || id <= 0 {
		return Entity{}, false
	}
	mat, err := strconv.Atoi(fields[1])
	if err != nil {
		return Entity{}, false
	}

	ent := Entity{Type: TypeCell, ID: id, Material: mat}

	rest := restAfterField(raw, fields[0])
	rest = restAfterField(rest, fields[1])

	if mat > 0 {
		f := strings.Fields(rest)
		if len(f) == 0 {
			return Entity{}, false // a filled cell must carry a density
		}
		ent.Density = f[0]
		rest = restAfterField(rest, f[0])
	}

	if idx := strings.Index(rest, "$"); idx >= 0 {
		ent.Comment = rest[idx:]
		rest = rest[:idx]
	}

	for _, tok := range strings.Fields(rest) {
		ent.Geom = append(ent.Geom, parseGeomToken(tok))
	}
	return ent, true
}

// parseGeomToken classifies one geometry token. Unknown shapes become
// verbatim text and are never rewritten during a merge.
func parseGeomToken(tok string) GeomToken {
	if strings.HasPrefix(tok, "#") {
		if id, err := strconv.Atoi(tok[1:]); err == nil && id > 0 {
			return GeomToken{Kind: GeomCell, ID: id}
		}
	}
	if id, err := strconv.Atoi(tok); err == nil && id != 0 {
		if id < 0 {
			return GeomToken{Kind: GeomSurface, Negative: true, ID: -id}
		}
		return GeomToken{Kind: GeomSurface, ID: id}
	}
	return GeomToken{Kind: GeomText, Text: tok}
}

// restAfterField returns the remainder of raw after the first occurrence of
// field, with surrounding whitespace trimmed.
func restAfterField(raw, field string) string {
	idx := strings.Index(raw, field)
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(raw[idx+len(field):])
}
