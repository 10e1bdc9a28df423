package phitsdoc

import (
	"fmt"
	"strconv"
	"strings"
)

// Serialize renders the document in the canonical deck layout. Parsing the
// result yields a structurally equal Document, so serialize∘parse is stable
// byte-for-byte for anything this package produced.
func (d *Document) Serialize() string {
	var b strings.Builder
	for i := range d.Sections {
		writeSection(&b, &d.Sections[i])
	}
	return b.String()
}

func writeSection(b *strings.Builder, s *Section) {
	fmt.Fprintf(b, "[ %s ]\n", spaceOut(s.Name))
	for _, line := range s.Preamble {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	for i := range s.Entities {
		writeEntity(b, &s.Entities[i])
	}
	b.WriteByte('\n')
}

func writeEntity(b *strings.Builder, e *Entity) {
	switch e.Type {
	case TypeCell:
		b.WriteString("  ")
		b.WriteString(strconv.Itoa(e.ID))
		b.WriteString("  ")
		b.WriteString(strconv.Itoa(e.Material))
		if e.Material > 0 {
			b.WriteString("  ")
			b.WriteString(e.Density)
		}
		if len(e.Geom) > 0 {
			b.WriteString("  ")
			b.WriteString(geomString(e.Geom))
		}
		if e.Comment != "" {
			b.WriteString("    ")
			b.WriteString(e.Comment)
		}
		b.WriteByte('\n')

	case TypeSurface:
		fmt.Fprintf(b, "  %d  %s\n", e.ID, e.Body)

	case TypeMaterial:
		fmt.Fprintf(b, "  mat[%d]  %s\n", e.ID, e.Body)

	case TypeTransform:
		star := ""
		if e.Star {
			star = "*"
		}
		fmt.Fprintf(b, "  %str%d  %s\n", star, e.ID, e.Body)
	}

	for _, line := range e.Extra {
		b.WriteString(line)
		b.WriteByte('\n')
	}
}

// geomString renders a geometry expression with single spaces.
func geomString(geom []GeomToken) string {
	parts := make([]string, len(geom))
	for i, g := range geom {
		parts[i] = g.String()
	}
	return strings.Join(parts, " ")
}

func (g GeomToken) String() string {
	switch g.Kind {
	case GeomSurface:
		if g.Negative {
			return "-" + strconv.Itoa(g.ID)
		}
		return strconv.Itoa(g.ID)
	case GeomCell:
		return "#" + strconv.Itoa(g.ID)
	default:
		return g.Text
	}
}

// spaceOut renders a section name in the deck's spaced-letter header style,
// e.g. "Cell" -> "C e l l".
func spaceOut(name string) string {
	runes := []rune(name)
	parts := make([]string, len(runes))
	for i, r := range runes {
		parts[i] = string(r)
	}
	return strings.Join(parts, " ")
}
