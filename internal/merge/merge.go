// Package merge combines a shared environment deck with a per-point overlay
// template: overlay identifiers colliding with the base are renumbered to the
// smallest unused identifier of their type, every reference token is
// rewritten to match, placeholders are substituted, and newly introduced
// cells are carved out of the base's aggregate region. Merging is pure:
// inputs are never mutated, so concurrent invocations share nothing.
package merge

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hazlab/doseplan/internal/phitsdoc"
)

// maxIdent is the largest identifier the deck format accepts per type.
const maxIdent = 999999

// renumberOrder fixes the per-type processing order so identical inputs
// always produce identical remap tables.
var renumberOrder = []phitsdoc.EntityType{
	phitsdoc.TypeMaterial,
	phitsdoc.TypeSurface,
	phitsdoc.TypeTransform,
	phitsdoc.TypeCell,
}

// Options selects the merge's exclusion behavior.
type Options struct {
	// ExclusionCell is the base aggregate cell (the air region) that newly
	// introduced overlay cells must be subtracted from. 0 disables exclusion.
	ExclusionCell int

	// DetectorCell is the overlay's detector cell identifier, as written in
	// the template. Its post-renumber identifier feeds the detector_cell
	// placeholder and the exclusion list. 0 means the overlay introduces no
	// detector cell.
	DetectorCell int
}

// Remap records, per entity type, the identifiers reassigned during a merge.
type Remap map[phitsdoc.EntityType]map[int]int

// Lookup returns the new identifier for an original one, or the original
// unchanged when it was not reassigned.
func (r Remap) Lookup(t phitsdoc.EntityType, id int) int {
	if m, ok := r[t]; ok {
		if n, ok := m[id]; ok {
			return n
		}
	}
	return id
}

func (r Remap) set(t phitsdoc.EntityType, from, to int) {
	if r[t] == nil {
		r[t] = make(map[int]int)
	}
	r[t][from] = to
}

// Result is a completed merge.
type Result struct {
	// Doc is the merged document: base sections first, renumbered and
	// substituted overlay content appended.
	Doc *phitsdoc.Document

	// Remap records every identifier reassignment performed.
	Remap Remap

	// DetectorCell is the detector cell's final identifier, 0 when the
	// overlay introduced none.
	DetectorCell int
}

// Merge combines base and overlay. It is deterministic and does not mutate
// either input document or the substitution map.
func Merge(base, overlay *phitsdoc.Document, subs Substitutions, opts Options) (*Result, error) {
	if err := subs.validateKeys(); err != nil {
		return nil, err
	}
	if err := checkUniqueIDs(base, "base"); err != nil {
		return nil, err
	}
	if err := checkUniqueIDs(overlay, "overlay"); err != nil {
		return nil, err
	}
	if opts.DetectorCell != 0 && !overlay.IDSet(phitsdoc.TypeCell)[opts.DetectorCell] {
		return nil, fmt.Errorf("merge: overlay has no detector cell %d", opts.DetectorCell)
	}

	merged := base.Clone()
	ov := overlay.Clone()

	remap := make(Remap)
	for _, t := range renumberOrder {
		if err := renumber(merged, ov, t, remap); err != nil {
			return nil, err
		}
	}
	rewriteReferences(ov, remap)

	detector := 0
	if opts.DetectorCell != 0 {
		detector = remap.Lookup(phitsdoc.TypeCell, opts.DetectorCell)
	}

	if err := checkRequired(collectPlaceholders(ov)); err != nil {
		return nil, err
	}

	// Substitution happens after renumbering so placeholder values can never
	// collide with reference syntax, and detector_cell reflects the remap.
	effective := make(Substitutions, len(subs)+1)
	for k, v := range subs {
		effective[k] = v
	}
	if detector != 0 {
		effective[KeyDetector] = strconv.Itoa(detector)
	}
	if err := substitute(ov, effective); err != nil {
		return nil, err
	}

	appendSections(merged, ov)

	if opts.ExclusionCell != 0 && detector != 0 {
		agg := merged.FindCell(opts.ExclusionCell)
		if agg == nil {
			return nil, fmt.Errorf("merge: exclusion target cell %d not found in base", opts.ExclusionCell)
		}
		agg.Geom = append(agg.Geom, phitsdoc.GeomToken{Kind: phitsdoc.GeomCell, ID: detector})
	}

	if err := checkReferences(merged); err != nil {
		return nil, err
	}

	return &Result{Doc: merged, Remap: remap, DetectorCell: detector}, nil
}

// checkUniqueIDs enforces the per-type identifier uniqueness invariant on an
// input document before merging.
func checkUniqueIDs(doc *phitsdoc.Document, which string) error {
	for _, t := range renumberOrder {
		seen := make(map[int]bool)
		for _, e := range doc.EntitiesOf(t) {
			if seen[e.ID] {
				return fmt.Errorf("merge: %s document has duplicate %s identifier %d", which, t, e.ID)
			}
			seen[e.ID] = true
		}
	}
	return nil
}

// renumber reassigns overlay identifiers of type t that collide with base
// identifiers. A reassigned identifier is the smallest positive integer not
// used by the base, the overlay, or an earlier reassignment, scanned
// ascending, so allocation is deterministic and injective.
func renumber(base, ov *phitsdoc.Document, t phitsdoc.EntityType, remap Remap) error {
	baseIDs := base.IDSet(t)
	used := make(map[int]bool, len(baseIDs))
	for id := range baseIDs {
		used[id] = true
	}
	for id := range ov.IDSet(t) {
		used[id] = true
	}

	next := 1
	for _, e := range ov.EntitiesOf(t) {
		if !baseIDs[e.ID] {
			continue
		}
		for next <= maxIdent && used[next] {
			next++
		}
		if next > maxIdent {
			return fmt.Errorf("%w: no free %s identifier below %d", ErrIdentifierExhausted, t, maxIdent+1)
		}
		used[next] = true
		remap.set(t, e.ID, next)
		e.ID = next
	}
	return nil
}

// rewriteReferences applies the remap to every reference token in the
// overlay. References untouched by the remap pass through: they point at
// base entities (a fixed background material, the world surface).
func rewriteReferences(ov *phitsdoc.Document, remap Remap) {
	for _, e := range ov.EntitiesOf(phitsdoc.TypeCell) {
		if e.Material > 0 {
			e.Material = remap.Lookup(phitsdoc.TypeMaterial, e.Material)
		}
		for i := range e.Geom {
			switch e.Geom[i].Kind {
			case phitsdoc.GeomSurface:
				e.Geom[i].ID = remap.Lookup(phitsdoc.TypeSurface, e.Geom[i].ID)
			case phitsdoc.GeomCell:
				e.Geom[i].ID = remap.Lookup(phitsdoc.TypeCell, e.Geom[i].ID)
			}
		}
	}
}

// checkReferences verifies every reference in the merged document resolves.
func checkReferences(doc *phitsdoc.Document) error {
	mats := doc.IDSet(phitsdoc.TypeMaterial)
	surfs := doc.IDSet(phitsdoc.TypeSurface)
	cells := doc.IDSet(phitsdoc.TypeCell)

	for _, e := range doc.EntitiesOf(phitsdoc.TypeCell) {
		if e.Material > 0 && !mats[e.Material] {
			return &DanglingReferenceError{Type: phitsdoc.TypeMaterial, ID: e.Material}
		}
		for _, g := range e.Geom {
			switch g.Kind {
			case phitsdoc.GeomSurface:
				if !surfs[g.ID] {
					return &DanglingReferenceError{Type: phitsdoc.TypeSurface, ID: g.ID}
				}
			case phitsdoc.GeomCell:
				if !cells[g.ID] {
					return &DanglingReferenceError{Type: phitsdoc.TypeCell, ID: g.ID}
				}
			}
		}
	}
	return nil
}

// appendSections splices the overlay's sections into the merged document:
// into the matching base section when one exists (base entities first),
// otherwise as a new section placed before a trailing [End].
func appendSections(merged *phitsdoc.Document, ov *phitsdoc.Document) {
	for _, sec := range ov.Sections {
		target := findSection(merged, sec.Name)
		if target == nil {
			insertSection(merged, sec)
			continue
		}
		if len(sec.Preamble) > 0 {
			if n := len(target.Entities); n > 0 {
				target.Entities[n-1].Extra = append(target.Entities[n-1].Extra, sec.Preamble...)
			} else {
				target.Preamble = append(target.Preamble, sec.Preamble...)
			}
		}
		target.Entities = append(target.Entities, sec.Entities...)
	}
}

// findSection returns the last merged section matching name, or nil.
func findSection(doc *phitsdoc.Document, name string) *phitsdoc.Section {
	want := strings.ToLower(name)
	for i := len(doc.Sections) - 1; i >= 0; i-- {
		if strings.ToLower(doc.Sections[i].Name) == want {
			return &doc.Sections[i]
		}
	}
	return nil
}

// insertSection adds a new section, keeping a trailing [End] section last.
func insertSection(doc *phitsdoc.Document, s phitsdoc.Section) {
	n := len(doc.Sections)
	if n > 0 && strings.ToLower(doc.Sections[n-1].Name) == "end" {
		doc.Sections = append(doc.Sections[:n-1], s, doc.Sections[n-1])
		return
	}
	doc.Sections = append(doc.Sections, s)
}
