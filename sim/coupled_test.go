package sim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoupled_AddAndRemove(t *testing.T) {
	a, b := newProbe("a", Infinity, nil), newProbe("b", Infinity, nil)
	root := newRoot(a, b)
	root.MustConnect(Couple("a", "out", "b", "in"), Couple("b", "out", "a", "in"))
	v := root.Version()

	assert.Same(t, root, a.Parent().(*Coupled))
	assert.Equal(t, "root/a", Path(a))
	assert.Error(t, root.Add(newProbe("a", Infinity, nil)), "duplicate name")
	assert.Error(t, NewCoupled("other").Add(a), "already parented")
	assert.Error(t, root.Add(nil))

	require.NoError(t, root.Remove("a"))
	assert.Nil(t, a.Parent())
	assert.Empty(t, root.Couplings(), "couplings touching a are dropped")
	assert.Greater(t, root.Version(), v)
	_, ok := root.Submodel("b")
	assert.True(t, ok, "index rebuilt after removal")
	assert.Error(t, root.Remove("a"))
}

func TestCoupled_ConnectValidation(t *testing.T) {
	a, b := newProbe("a", Infinity, nil), newProbe("b", Infinity, nil)
	b.AddInPort(NewPortOf[string]("text"))
	root := newRoot(a, b)
	root.AddInPort(NewPortOf[int]("in"))
	root.AddOutPort(NewPortOf[int]("out"))

	tests := []struct {
		name    string
		cp      Coupling
		wantErr bool
	}{
		{"internal", Couple("a", "out", "b", "in"), false},
		{"external input", Couple(Self, "in", "a", "in"), false},
		{"external output", Couple("b", "out", Self, "out"), false},
		{"unknown model", Couple("ghost", "out", "b", "in"), true},
		{"unknown port", Couple("a", "nope", "b", "in"), true},
		{"wrong direction", Couple("a", "in", "b", "in"), true},
		{"self loop", Couple("a", "out", "a", "in"), true},
		{"self to self", Couple(Self, "in", Self, "out"), true},
		{"type mismatch", Couple("a", "out", "b", "text"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := root.Connect(tt.cp)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
	assert.ErrorIs(t, root.Connect(Couple("a", "out", "b", "text")), ErrTypeMismatch)
	assert.Error(t, root.Connect(Couple("a", "out", "b", "in")), "duplicate coupling")
	assert.Len(t, root.Couplings(), 3)
}

func TestCoupled_ApplyChangesCollectsFailures(t *testing.T) {
	a := newProbe("a", Infinity, nil)
	root := newRoot(a)
	sink := newProbe("sink", Infinity, nil)

	err := root.ApplyChanges([]ChangeRequest{
		AddModel(root, sink),
		RemoveModel(root, "ghost"),
		AddCoupling(root, Couple("a", "out", "sink", "in")),
	})

	require.Error(t, err)
	var cre *ChangeRequestError
	require.True(t, errors.As(err, &cre))
	assert.Equal(t, ChangeModelRemove, cre.Request.Kind)
	assert.ErrorIs(t, err, ErrInvalidChangeRequest)
	assert.Len(t, root.Submodels(), 2, "valid requests still applied")
	assert.Len(t, root.Couplings(), 1)
}

func TestCoupled_PortRemoveDropsCouplings(t *testing.T) {
	a, b := newProbe("a", Infinity, nil), newProbe("b", Infinity, nil)
	root := newRoot(a, b)
	root.AddOutPort(NewPortOf[int]("out"))
	root.MustConnect(Couple("a", "out", "b", "in"), Couple("a", "out", Self, "out"))

	require.NoError(t, root.ApplyChanges([]ChangeRequest{RemovePort(root, Self, Out, "out")}))
	assert.Equal(t, []Coupling{Couple("a", "out", "b", "in")}, root.Couplings())

	require.NoError(t, root.ApplyChanges([]ChangeRequest{RemovePort(root, "b", In, "in")}))
	assert.Empty(t, root.Couplings())
	assert.Equal(t, 0, b.InPorts().Len())
}

func TestCoupled_PortAdd(t *testing.T) {
	a := newProbe("a", Infinity, nil)
	root := newRoot(a)

	require.NoError(t, root.ApplyChanges([]ChangeRequest{
		AddPort(root, "a", Out, NewPortOf[int]("extra")),
		AddPort(root, Self, In, NewPortOf[int]("feed")),
	}))
	_, ok := a.OutPorts().Get("extra")
	assert.True(t, ok)
	_, ok = root.InPorts().Get("feed")
	assert.True(t, ok)

	err := root.ApplyChanges([]ChangeRequest{AddPort(root, "a", Out, NewPortOf[int]("extra"))})
	assert.ErrorIs(t, err, ErrInvalidChangeRequest, "duplicate port")
}

func TestCoupled_ModifyCouplingsRollsBack(t *testing.T) {
	a, b, c := newProbe("a", Infinity, nil), newProbe("b", Infinity, nil), newProbe("c", Infinity, nil)
	root := newRoot(a, b, c)
	root.MustConnect(Couple("a", "out", "b", "in"))

	err := root.ApplyChanges([]ChangeRequest{ModifyCouplings(root,
		[]Coupling{Couple("a", "out", "c", "in"), Couple("a", "out", "ghost", "in")},
		[]Coupling{Couple("a", "out", "b", "in")},
	)})

	assert.ErrorIs(t, err, ErrInvalidChangeRequest)
	assert.Equal(t, []Coupling{Couple("a", "out", "b", "in")}, root.Couplings(), "modification is all or nothing")

	require.NoError(t, root.ApplyChanges([]ChangeRequest{ModifyCouplings(root,
		[]Coupling{Couple("a", "out", "c", "in")},
		[]Coupling{Couple("a", "out", "b", "in")},
	)}))
	assert.Equal(t, []Coupling{Couple("a", "out", "c", "in")}, root.Couplings())
}

func TestPath_Nested(t *testing.T) {
	leaf := newProbe("leaf", Infinity, nil)
	mid := NewCoupled("mid").MustAdd(leaf)
	NewCoupled("top").MustAdd(mid)

	assert.Equal(t, "top/mid/leaf", Path(leaf))
	assert.Equal(t, "top/mid", Path(mid))
}

func TestEndpointAndCouplingString(t *testing.T) {
	assert.Equal(t, "@.in->a.in", Couple(Self, "in", "a", "in").String())
	assert.Equal(t, "a.out->@.out", Couple("a", "out", Self, "out").String())
}

func TestCoupled_AddRejectsNonComparableModel(t *testing.T) {
	root := NewCoupled("root")
	err := root.Add(sliceModel{probe: newProbe("s", 1, nil), tags: []string{"x"}})
	assert.ErrorIs(t, err, ErrModelNotComparable)
	assert.Empty(t, root.Submodels())
	assert.Panics(t, func() { root.MustAdd(sliceModel{probe: newProbe("s", 1, nil)}) })
}

func TestCoupled_ApplyChangesReportsFailurePosition(t *testing.T) {
	root := newRoot(newProbe("a", 1, nil), newProbe("b", 1, nil))
	cp := Couple("a", "out", "b", "in")

	err := root.ApplyChanges([]ChangeRequest{AddCoupling(root, cp), AddCoupling(root, cp)})

	var cre *ChangeRequestError
	require.True(t, errors.As(err, &cre))
	assert.Equal(t, 1, cre.Index)
	assert.Contains(t, cre.Reason, "already exists")
	assert.Len(t, root.Couplings(), 1)
}
