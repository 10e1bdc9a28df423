package phitsdoc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDeck = `[ T i t l e ]
Environment Definition for Dose Map Calculation

[ P a r a m e t e r s ]
   maxcas   = 10000
   maxbch   = 10

[ M a t e r i a l ]
  mat[1]  N 8 O 2         $ Air
  mat[2]  Fe 1.0          $ Iron

[ S u r f a c e ]
  101  rpp  0.0 50.0  950.0 1000.0  0.0 200.0
  998  rpp  -100.0 1100.0  -100.0 1100.0  -100.0 300.0
  999  so   10000.0

[ C e l l ]
  101  2  -7.874  -101    $ Wall at (0,0)
  1000  1  -1.20E-3  -998 #101    $ Air region
  9000  -1  998    $ Outside world (void)

[ S o u r c e ]
   s-type = 1             $ Point source
     proj = photon
       x0 = 25.000

[ E n d ]
`

func TestParse_SampleDeckStructure(t *testing.T) {
	doc, err := Parse(sampleDeck)
	require.NoError(t, err)

	require.Len(t, doc.Sections, 7)
	assert.Equal(t, "Title", doc.Sections[0].Name)
	assert.Equal(t, "Parameters", doc.Sections[1].Name)
	assert.Equal(t, "Material", doc.Sections[2].Name)
	assert.Equal(t, "Surface", doc.Sections[3].Name)
	assert.Equal(t, "Cell", doc.Sections[4].Name)
	assert.Equal(t, "Source", doc.Sections[5].Name)
	assert.Equal(t, "End", doc.Sections[6].Name)

	mats := doc.EntitiesOf(TypeMaterial)
	require.Len(t, mats, 2)
	assert.Equal(t, 1, mats[0].ID)
	assert.Equal(t, "N 8 O 2         $ Air", mats[0].Body)

	surfs := doc.EntitiesOf(TypeSurface)
	require.Len(t, surfs, 3)
	assert.Equal(t, 101, surfs[0].ID)
	assert.Equal(t, 999, surfs[2].ID)

	cells := doc.EntitiesOf(TypeCell)
	require.Len(t, cells, 3)

	wallCell := cells[0]
	assert.Equal(t, 101, wallCell.ID)
	assert.Equal(t, 2, wallCell.Material)
	assert.Equal(t, "-7.874", wallCell.Density)
	require.Len(t, wallCell.Geom, 1)
	assert.Equal(t, GeomToken{Kind: GeomSurface, Negative: true, ID: 101}, wallCell.Geom[0])
	assert.Equal(t, "$ Wall at (0,0)", wallCell.Comment)

	airCell := cells[1]
	require.Len(t, airCell.Geom, 2)
	assert.Equal(t, GeomToken{Kind: GeomSurface, Negative: true, ID: 998}, airCell.Geom[0])
	assert.Equal(t, GeomToken{Kind: GeomCell, ID: 101}, airCell.Geom[1])

	voidCell := cells[2]
	assert.Equal(t, -1, voidCell.Material)
	assert.Empty(t, voidCell.Density, "void cells carry no density")
}

func TestParse_SerializeRoundTrip(t *testing.T) {
	doc, err := Parse(sampleDeck)
	require.NoError(t, err)

	text := doc.Serialize()
	again, err := Parse(text)
	require.NoError(t, err)

	assert.Equal(t, doc, again, "parse(serialize(d)) must equal d structurally")
	assert.Equal(t, text, again.Serialize(), "serializer output must be a fixed point")
}

func TestParse_OpaqueContentPreservedVerbatim(t *testing.T) {
	doc, err := Parse(sampleDeck)
	require.NoError(t, err)

	src := doc.Sections[5]
	require.Len(t, src.Entities, 1)
	assert.Equal(t, TypeOpaque, src.Entities[0].Type)
	assert.Equal(t, []string{
		"   s-type = 1             $ Point source",
		"     proj = photon",
		"       x0 = 25.000",
	}, src.Entities[0].Extra)
}

func TestParse_UnrecognizedLineAttachesToNearestEntity(t *testing.T) {
	deck := "[ C e l l ]\n  5  1  -1.0  -10\n  some wrapped continuation\n"
	doc, err := Parse(deck)
	require.NoError(t, err)

	cells := doc.EntitiesOf(TypeCell)
	require.Len(t, cells, 1)
	assert.Equal(t, []string{"  some wrapped continuation"}, cells[0].Extra)

	// Round trip keeps it verbatim.
	again, err := Parse(doc.Serialize())
	require.NoError(t, err)
	assert.Equal(t, doc, again)
}

func TestParse_ContentBeforeHeaderIsMalformed(t *testing.T) {
	_, err := Parse("stray line\n[ C e l l ]\n")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestParse_EmptyHeaderIsMalformed(t *testing.T) {
	_, err := Parse("[   ]\n")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestIDSet_PerTypeNamespaces(t *testing.T) {
	doc, err := Parse(sampleDeck)
	require.NoError(t, err)

	// Surface 101 and cell 101 coexist: identifiers are per type.
	assert.True(t, doc.IDSet(TypeSurface)[101])
	assert.True(t, doc.IDSet(TypeCell)[101])
	assert.False(t, doc.IDSet(TypeCell)[999])
	assert.Equal(t, map[int]bool{1: true, 2: true}, doc.IDSet(TypeMaterial))
}

func TestFindCell(t *testing.T) {
	doc, err := Parse(sampleDeck)
	require.NoError(t, err)

	air := doc.FindCell(1000)
	require.NotNil(t, air)
	assert.Equal(t, 1, air.Material)
	assert.Nil(t, doc.FindCell(12345))
}

func TestClone_Independent(t *testing.T) {
	doc, err := Parse(sampleDeck)
	require.NoError(t, err)

	clone := doc.Clone()
	clone.EntitiesOf(TypeCell)[0].ID = 777
	clone.EntitiesOf(TypeCell)[1].Geom[1].ID = 777

	assert.Equal(t, 101, doc.EntitiesOf(TypeCell)[0].ID, "clone must not share entity storage")
	assert.Equal(t, 101, doc.EntitiesOf(TypeCell)[1].Geom[1].ID, "clone must not share geometry storage")
}

func TestParse_TransformForms(t *testing.T) {
	deck := "[ T r a n s f o r m ]\n  tr1  0 0 100\n  *tr2  0 0 0  30 90 60\n"
	doc, err := Parse(deck)
	require.NoError(t, err)

	trs := doc.EntitiesOf(TypeTransform)
	require.Len(t, trs, 2)
	assert.False(t, trs[0].Star)
	assert.True(t, trs[1].Star)
	assert.Equal(t, 2, trs[1].ID)

	again, err := Parse(doc.Serialize())
	require.NoError(t, err)
	assert.Equal(t, doc, again)
}
