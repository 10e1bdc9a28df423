// Package envgen builds the shared environment deck from a planning grid:
// one box surface and iron cell per wall, an air region carved by cell
// complements, an enclosing world box and void, one point source per source
// marker, and an xyz-mesh deposit tally aligned to the grid.
package envgen

import (
	"fmt"
	"log"

	"github.com/hazlab/doseplan/internal/gridmap"
	"github.com/hazlab/doseplan/internal/phitsdoc"
)

// Fixed identifiers of the environment deck. Per-point overlays colliding
// with these are renumbered at merge time.
const (
	WallSurfaceBase = 101
	WorldSurface    = 998
	VoidSphere      = 999
	AirCell         = 1000
	VoidCell        = 9000

	airMaterial  = 1
	ironMaterial = 2

	airDensity  = "-1.20E-3"
	ironDensity = "-7.874"
)

// Options carries the tunable parts of the environment deck.
type Options struct {
	Title    string
	MaxCas   int
	MaxBch   int
	Nuclide  string // default for source markers without metadata
	Activity string
}

// DefaultOptions returns the generator defaults.
func DefaultOptions() Options {
	return Options{
		Title:    "Environment Definition for Dose Map Calculation",
		MaxCas:   10000,
		MaxBch:   10,
		Nuclide:  "Cs-137",
		Activity: "1.0E+12",
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Title == "" {
		o.Title = d.Title
	}
	if o.MaxCas <= 0 {
		o.MaxCas = d.MaxCas
	}
	if o.MaxBch <= 0 {
		o.MaxBch = d.MaxBch
	}
	if o.Nuclide == "" {
		o.Nuclide = d.Nuclide
	}
	if o.Activity == "" {
		o.Activity = d.Activity
	}
	return o
}

// Build assembles the environment deck for grid g.
func Build(g *gridmap.Grid, opts Options) *phitsdoc.Document {
	opts = opts.withDefaults()
	geom := g.Geometry()

	doc := &phitsdoc.Document{}
	doc.Sections = append(doc.Sections,
		opaqueSection("Title", opts.Title),
		opaqueSection("Parameters",
			fmt.Sprintf("   maxcas   = %d", opts.MaxCas),
			fmt.Sprintf("   maxbch   = %d", opts.MaxBch),
		),
		phitsdoc.Section{Name: "Material", Entities: []phitsdoc.Entity{
			{Type: phitsdoc.TypeMaterial, ID: airMaterial, Body: "N 8 O 2         $ Air"},
			{Type: phitsdoc.TypeMaterial, ID: ironMaterial, Body: "Fe 1.0          $ Iron"},
		}},
	)

	var surfaces, cells []phitsdoc.Entity
	var wallIDs []int

	id := WallSurfaceBase
	for r := 0; r < g.Rows(); r++ {
		for c := 0; c < g.Cols(); c++ {
			p := gridmap.Point{Row: r, Col: c}
			if g.KindAt(p) != gridmap.KindWall {
				continue
			}
			b := g.PhysicalBounds(p)
			surfaces = append(surfaces, phitsdoc.Entity{
				Type: phitsdoc.TypeSurface,
				ID:   id,
				Body: rppBody(b),
			})
			cells = append(cells, phitsdoc.Entity{
				Type:     phitsdoc.TypeCell,
				ID:       id,
				Material: ironMaterial,
				Density:  ironDensity,
				Geom:     []phitsdoc.GeomToken{{Kind: phitsdoc.GeomSurface, Negative: true, ID: id}},
				Comment:  fmt.Sprintf("$ Wall at %s", p),
			})
			wallIDs = append(wallIDs, id)
			id++
		}
	}

	world := gridmap.Bounds{
		XMin: -geom.WorldMargin, XMax: g.Width() + geom.WorldMargin,
		YMin: -geom.WorldMargin, YMax: g.Height() + geom.WorldMargin,
		ZMin: -geom.WorldMargin, ZMax: geom.CellHeightZ + geom.WorldMargin,
	}
	surfaces = append(surfaces,
		phitsdoc.Entity{Type: phitsdoc.TypeSurface, ID: WorldSurface, Body: rppBody(world)},
		phitsdoc.Entity{Type: phitsdoc.TypeSurface, ID: VoidSphere, Body: fmt.Sprintf("so   %.1f", voidRadius(g))},
	)

	airGeom := []phitsdoc.GeomToken{{Kind: phitsdoc.GeomSurface, Negative: true, ID: WorldSurface}}
	for _, w := range wallIDs {
		airGeom = append(airGeom, phitsdoc.GeomToken{Kind: phitsdoc.GeomCell, ID: w})
	}
	cells = append(cells,
		phitsdoc.Entity{
			Type: phitsdoc.TypeCell, ID: AirCell, Material: airMaterial, Density: airDensity,
			Geom: airGeom, Comment: "$ Air region",
		},
		phitsdoc.Entity{
			Type: phitsdoc.TypeCell, ID: VoidCell, Material: -1,
			Geom:    []phitsdoc.GeomToken{{Kind: phitsdoc.GeomSurface, ID: WorldSurface}},
			Comment: "$ Outside world (void)",
		},
	)

	doc.Sections = append(doc.Sections,
		phitsdoc.Section{Name: "Surface", Entities: surfaces},
		phitsdoc.Section{Name: "Cell", Entities: cells},
	)

	doc.Sections = append(doc.Sections, sourceSections(g, opts)...)
	doc.Sections = append(doc.Sections, tallySection(g), opaqueSection("End"))
	return doc
}

// sourceSections emits one [Source] section per source marker, as the
// simulator expects for multiple independent sources.
func sourceSections(g *gridmap.Grid, opts Options) []phitsdoc.Section {
	sources := g.Sources()
	if len(sources) == 0 {
		log.Printf("WARNING: envgen: grid has no source markers, deck will not emit particles")
		return []phitsdoc.Section{opaqueSection("Source", "$ --- no source markers on the grid ---")}
	}

	out := make([]phitsdoc.Section, 0, len(sources))
	for _, s := range sources {
		nuclide, activity := s.Nuclide, s.Activity
		if nuclide == "" {
			nuclide = opts.Nuclide
		}
		if activity == "" {
			activity = opts.Activity
		}
		x, y, z := g.Center(s.Point)
		out = append(out, opaqueSection("Source",
			"   s-type = 1             $ Point source",
			"     proj = photon",
			fmt.Sprintf("       x0 = %.3f", x),
			fmt.Sprintf("       y0 = %.3f", y),
			fmt.Sprintf("       z0 = %.3f", z),
			fmt.Sprintf("       z1 = %.3f", z),
			"      dir = all          $ Isotropic",
			"   e-type = 28            $ RI source",
			"       ni = 1",
			fmt.Sprintf("     %s %s      $ activity in Bq", nuclide, activity),
			"    dtime = -10.0",
			"     norm = 0             $ Output in [/sec]",
		))
	}
	return out
}

// tallySection emits an xyz deposit mesh with one bin per grid cell, so the
// tally output reads back as a row-major dose map.
func tallySection(g *gridmap.Grid) phitsdoc.Section {
	geom := g.Geometry()
	return opaqueSection("T-Deposit",
		"    title = Dose Map for Route Planning",
		"     mesh = xyz",
		"   x-type = 2",
		fmt.Sprintf("       nx = %d", g.Cols()),
		"     xmin = 0.0",
		fmt.Sprintf("     xmax = %.1f", g.Width()),
		"   y-type = 2",
		fmt.Sprintf("       ny = %d", g.Rows()),
		"     ymin = 0.0",
		fmt.Sprintf("     ymax = %.1f", g.Height()),
		"   z-type = 2",
		"       nz = 1",
		"     zmin = 0.0",
		fmt.Sprintf("     zmax = %.1f", geom.CellHeightZ),
		"     unit = 0              $ Gy per source particle",
		"   output = dose",
		"     axis = xy",
		"     file = deposit.out",
		"     part = all",
		"   epsout = 1",
	)
}

func opaqueSection(name string, lines ...string) phitsdoc.Section {
	s := phitsdoc.Section{Name: name}
	if len(lines) > 0 {
		s.Entities = []phitsdoc.Entity{{Type: phitsdoc.TypeOpaque, Extra: lines}}
	}
	return s
}

func rppBody(b gridmap.Bounds) string {
	return fmt.Sprintf("rpp  %.1f %.1f  %.1f %.1f  %.1f %.1f",
		b.XMin, b.XMax, b.YMin, b.YMax, b.ZMin, b.ZMax)
}

// voidRadius is a sphere comfortably larger than the world box.
func voidRadius(g *gridmap.Grid) float64 {
	r := g.Width()
	if h := g.Height(); h > r {
		r = h
	}
	if z := g.Geometry().CellHeightZ; z > r {
		r = z
	}
	return r * 10
}
