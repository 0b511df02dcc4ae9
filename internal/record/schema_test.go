package record

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuannm99/novadb/internal/datum"
)

func sampleSchema() *Schema {
	return &Schema{
		Columns: []Column{
			{Name: "id", Type: datum.Int(false)},
			{Name: "name", Type: datum.VarChar(false)},
			{Name: "active", Type: datum.Bool(true)},
		},
		PrimaryIdx: []int{0},
		UniqueSets: [][]int{{1}},
		ForeignKeys: []ForeignKey{
			{RefTablePageID: 7, Links: [][2]int{{1, 0}}},
		},
	}
}

func TestSchemaEncodeDecodeRoundTrip(t *testing.T) {
	s := sampleSchema()
	enc := s.Encode()

	got, err := DecodeSchema(enc)
	require.NoError(t, err)
	require.Equal(t, s, got)
}

func TestSchemaIndexOfAndProject(t *testing.T) {
	s := sampleSchema()
	require.Equal(t, 1, s.IndexOf("name"))
	require.Equal(t, -1, s.IndexOf("missing"))

	proj, err := s.Project("name", "id")
	require.NoError(t, err)
	require.Equal(t, []Column{
		{Name: "name", Type: datum.VarChar(false)},
		{Name: "id", Type: datum.Int(false)},
	}, proj.Columns)
}

func TestSchemaKeyWidthInlinableOnlyWithoutVarChar(t *testing.T) {
	s := &Schema{Columns: []Column{
		{Name: "a", Type: datum.Int(false)},
		{Name: "b", Type: datum.Char(4, false)},
	}}
	w, inlinable := s.KeyWidth()
	require.True(t, inlinable)
	require.Equal(t, 5+5, w)

	s2 := sampleSchema()
	_, inlinable2 := s2.KeyWidth()
	require.False(t, inlinable2)
}

func TestTupleEncodeDecodeRoundTrip(t *testing.T) {
	s := sampleSchema()
	tup, err := NewTuple(s, []datum.Datum{
		datum.NewInt(1),
		datum.NewVarChar("alice"),
		datum.NewNull(datum.Bool(true)),
	})
	require.NoError(t, err)

	enc, err := tup.Encode()
	require.NoError(t, err)

	got, err := DecodeTuple(s, enc)
	require.NoError(t, err)
	require.Equal(t, int32(1), got.Values[0].I)
	require.Equal(t, "alice", got.Values[1].S)
	require.True(t, got.Values[2].Null)
}

func TestTupleWrongArityRejected(t *testing.T) {
	s := sampleSchema()
	_, err := NewTuple(s, []datum.Datum{datum.NewInt(1)})
	require.Error(t, err)
}
