package models

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
	"github.com/yohamta/donburi"
)

func TestEntityFormatParse(t *testing.T) {
	w := donburi.NewWorld()
	e := w.Create(Name)

	parsed, err := ParseEntity(FormatEntity(e))
	require.NoError(t, err)
	require.Equal(t, e, parsed)

	parsed, err = ParseEntity("#" + FormatEntity(e))
	require.NoError(t, err)
	require.Equal(t, e, parsed)

	_, err = ParseEntity("player")
	require.Error(t, err)
	_, err = ParseEntity("2:x")
	require.Error(t, err)
}

func TestEntityFormatIsCompact(t *testing.T) {
	w := donburi.NewWorld()
	first := w.Create(Name)
	second := w.Create(Name)

	require.Equal(t, "1", FormatEntity(first))
	require.Equal(t, "2", FormatEntity(second))
	require.Equal(t, "0", FormatEntity(donburi.Null))

	// the id is reused with a new version once the entity is gone
	w.Remove(second)
	reused := w.Create(Name)
	require.Equal(t, second.Id(), reused.Id())
	require.Equal(t, "2:1", FormatEntity(reused))

	parsed, err := ParseEntity("2:1")
	require.NoError(t, err)
	require.Equal(t, reused, parsed)
	require.True(t, w.Valid(parsed))

	stale, err := ParseEntity("2")
	require.NoError(t, err)
	require.False(t, w.Valid(stale))

	null, err := ParseEntity("0")
	require.NoError(t, err)
	require.Equal(t, donburi.Null, null)
}

func TestTransformCompose(t *testing.T) {
	parent := FromXYZ(3, 0, 4)
	parent.Rotation = mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 1, 0})
	parent.Scale = mgl32.Vec3{2, 2, 2}

	child := FromXYZ(1, 0, 0)
	global := parent.Mul(child)

	// (1,0,0) scaled by 2 and turned 90° around +Y ends up on -Z.
	require.True(t, global.Translation.ApproxEqual(mgl32.Vec3{3, 0, 2}), global.String())
	require.True(t, global.Scale.ApproxEqual(mgl32.Vec3{2, 2, 2}))
	require.True(t, global.Rotation.ApproxEqual(parent.Rotation))

	require.True(t, Identity().Mul(child).ApproxEqual(child))
}

func TestGlobalTransform(t *testing.T) {
	w := donburi.NewWorld()

	root := w.Entry(w.Create(Transform))
	SetTransform(root, FromXYZ(10, 0, 0))

	mid := w.Entry(w.Create(Transform))
	SetTransform(mid, FromXYZ(0, 1, 0))
	SetParent(mid, root.Entity())

	leaf := w.Entry(w.Create(Transform))
	SetTransform(leaf, FromXYZ(0, 0, 5))
	SetParent(leaf, mid.Entity())

	global, ok := GlobalTransform(w, leaf.Entity())
	require.True(t, ok)
	require.True(t, global.Translation.ApproxEqual(mgl32.Vec3{10, 1, 5}))

	// A root placement comes back untouched.
	global, ok = GlobalTransform(w, root.Entity())
	require.True(t, ok)
	require.Equal(t, FromXYZ(10, 0, 0), global)

	bare := w.Create(Name)
	_, ok = GlobalTransform(w, bare)
	require.False(t, ok)
}

func TestGlobalTransformOfUnplacedChild(t *testing.T) {
	w := donburi.NewWorld()

	holder := w.Entry(w.Create(Transform))
	SetTransform(holder, FromXYZ(3, 0, 4))

	// no Transform of its own: it sits wherever its parent is
	inner := w.Entry(w.Create(Name))
	SetParent(inner, holder.Entity())

	leaf := w.Entry(w.Create(Transform))
	SetTransform(leaf, FromXYZ(1, 0, 0))
	SetParent(leaf, inner.Entity())

	global, ok := GlobalTransform(w, inner.Entity())
	require.True(t, ok)
	require.Equal(t, FromXYZ(3, 0, 4), global)

	global, ok = GlobalTransform(w, leaf.Entity())
	require.True(t, ok)
	require.True(t, global.Translation.ApproxEqual(mgl32.Vec3{4, 0, 4}), global.String())

	orphan := w.Entry(w.Create(Name))
	SetParent(orphan, w.Create(Name))
	_, ok = GlobalTransform(w, orphan.Entity())
	require.False(t, ok)
}

func TestParentHelpers(t *testing.T) {
	w := donburi.NewWorld()
	a := w.Create(Name)
	b := w.Create(Name)
	c := w.Create(Name)

	SetParent(w.Entry(b), a)
	SetParent(w.Entry(c), b)

	require.ElementsMatch(t, []donburi.Entity{b}, ChildrenOf(w, a))
	require.True(t, IsAncestor(w, a, c))
	require.False(t, IsAncestor(w, c, a))

	RemoveParent(w.Entry(b))
	_, ok := ParentOf(w.Entry(b))
	require.False(t, ok)
	require.Empty(t, ChildrenOf(w, a))
}

func TestDescribe(t *testing.T) {
	w := donburi.NewWorld()
	entry := w.Entry(w.Create(Name))
	SetName(entry, "Sword")
	SetTransform(entry, FromXYZ(1, 2, 3))

	lines := Describe(entry)
	require.Contains(t, lines, "Name: Sword")
	require.Contains(t, lines, "Transform: "+FromXYZ(1, 2, 3).String())
	require.Equal(t, "Sword", DisplayName(entry))
}
