// Package phitsdoc models the structural subset of a PHITS-style simulation
// input deck needed for merging and identifier renumbering: ordered sections,
// identified entities, and the reference tokens between them. It does not
// interpret geometry or physics; unrecognized content is preserved verbatim
// and survives a parse/serialize round trip unchanged.
package phitsdoc

// EntityType tags an identified entity and names its identifier namespace.
// Identifiers are unique per type across a whole document.
type EntityType string

const (
	TypeCell      EntityType = "cell"
	TypeSurface   EntityType = "surface"
	TypeMaterial  EntityType = "material"
	TypeTransform EntityType = "transform"

	// TypeOpaque marks free-form content carried without interpretation
	// (titles, parameters, sources, tallies).
	TypeOpaque EntityType = "opaque"
)

// GeomKind classifies one token of a cell's geometry expression.
type GeomKind int

const (
	// GeomSurface is a signed surface reference, e.g. "-101" or "998".
	GeomSurface GeomKind = iota

	// GeomCell is a cell complement reference, e.g. "#1000".
	GeomCell

	// GeomText is any other token (operators, parenthesized groups),
	// carried verbatim and never rewritten.
	GeomText
)

// GeomToken is one token of a cell geometry expression.
type GeomToken struct {
	Kind GeomKind

	// Negative records a leading minus on a surface reference (the sense).
	Negative bool

	// ID is the referenced identifier for GeomSurface and GeomCell tokens.
	ID int

	// Text is the verbatim token for GeomText.
	Text string
}

// Entity is one identified entity, or an opaque block, inside a section.
// The per-type payload fields are populated according to Type.
type Entity struct {
	Type EntityType

	// ID is the entity identifier. 0 for opaque entities.
	ID int

	// Star marks the "*trN" transform form.
	Star bool

	// Material is the material reference of a cell. Values <= 0 denote void
	// and carry no density.
	Material int

	// Density is the cell's density token, verbatim (e.g. "-1.20E-3").
	// Empty when Material <= 0.
	Density string

	// Geom is the cell's geometry expression, tokenized.
	Geom []GeomToken

	// Body is the verbatim payload after the identifier for surface,
	// material, and transform entities.
	Body string

	// Comment is a trailing "$ ..." remark on a cell line, verbatim.
	Comment string

	// Extra holds unrecognized or free-form lines attached to this entity,
	// verbatim. For opaque entities it is the whole content.
	Extra []string
}

// Section is a named, ordered group of entities.
type Section struct {
	// Name is the unspaced display name, e.g. "Cell" or "T-Deposit".
	// Headers serialize with single spaces between characters, the way the
	// simulator's decks are conventionally written.
	Name string

	// Preamble holds verbatim lines appearing before the first entity.
	Preamble []string

	Entities []Entity
}

// Document is an ordered sequence of sections. Duplicate section names are
// allowed (the deck format repeats [Source] per source).
type Document struct {
	Sections []Section
}

// sectionEntityType returns the entity type parsed inside a section of the
// given name, or TypeOpaque for sections carried verbatim.
func sectionEntityType(name string) EntityType {
	switch normalizeName(name) {
	case "cell":
		return TypeCell
	case "surface":
		return TypeSurface
	case "material":
		return TypeMaterial
	case "transform":
		return TypeTransform
	default:
		return TypeOpaque
	}
}

// IDSet collects every identifier of the given type used in the document.
func (d *Document) IDSet(t EntityType) map[int]bool {
	ids := make(map[int]bool)
	for si := range d.Sections {
		for ei := range d.Sections[si].Entities {
			e := &d.Sections[si].Entities[ei]
			if e.Type == t {
				ids[e.ID] = true
			}
		}
	}
	return ids
}

// EntitiesOf returns pointers to every entity of the given type in document
// order, for in-place renumbering.
func (d *Document) EntitiesOf(t EntityType) []*Entity {
	var out []*Entity
	for si := range d.Sections {
		for ei := range d.Sections[si].Entities {
			e := &d.Sections[si].Entities[ei]
			if e.Type == t {
				out = append(out, e)
			}
		}
	}
	return out
}

// FindCell returns the cell entity with the given identifier, or nil.
func (d *Document) FindCell(id int) *Entity {
	for _, e := range d.EntitiesOf(TypeCell) {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// Clone returns a deep copy. Merging never mutates its inputs.
func (d *Document) Clone() *Document {
	out := &Document{Sections: make([]Section, len(d.Sections))}
	for i, s := range d.Sections {
		cs := Section{Name: s.Name}
		cs.Preamble = append([]string(nil), s.Preamble...)
		cs.Entities = make([]Entity, len(s.Entities))
		for j, e := range s.Entities {
			ce := e
			ce.Geom = append([]GeomToken(nil), e.Geom...)
			ce.Extra = append([]string(nil), e.Extra...)
			cs.Entities[j] = ce
		}
		out.Sections[i] = cs
	}
	return out
}
