package models

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/yohamta/donburi"
)

// maxHierarchyDepth bounds parent walks so a corrupt cycle cannot hang a tick.
const maxHierarchyDepth = 64

// TransformData is an independent spatial placement relative to the parent,
// or to the world origin for root entities.
type TransformData struct {
	Translation mgl32.Vec3
	Rotation    mgl32.Quat
	Scale       mgl32.Vec3
}

var Transform = donburi.NewComponentType[TransformData]()

func Identity() TransformData {
	return TransformData{
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

func FromTranslation(v mgl32.Vec3) TransformData {
	t := Identity()
	t.Translation = v
	return t
}

func FromXYZ(x, y, z float32) TransformData {
	return FromTranslation(mgl32.Vec3{x, y, z})
}

// Mul composes t (the parent) with child and returns the child in t's space.
func (t TransformData) Mul(child TransformData) TransformData {
	scaled := mgl32.Vec3{
		t.Scale[0] * child.Translation[0],
		t.Scale[1] * child.Translation[1],
		t.Scale[2] * child.Translation[2],
	}
	return TransformData{
		Translation: t.Translation.Add(t.Rotation.Rotate(scaled)),
		Rotation:    t.Rotation.Mul(child.Rotation),
		Scale: mgl32.Vec3{
			t.Scale[0] * child.Scale[0],
			t.Scale[1] * child.Scale[1],
			t.Scale[2] * child.Scale[2],
		},
	}
}

// ApproxEqual compares two placements with mgl32's float tolerance.
func (t TransformData) ApproxEqual(o TransformData) bool {
	return t.Translation.ApproxEqual(o.Translation) &&
		t.Rotation.ApproxEqual(o.Rotation) &&
		t.Scale.ApproxEqual(o.Scale)
}

func (t TransformData) String() string {
	return fmt.Sprintf("{translation: %s, rotation: %s, scale: %s}",
		FormatVec3(t.Translation), FormatQuat(t.Rotation), FormatVec3(t.Scale))
}

func FormatVec3(v mgl32.Vec3) string {
	return fmt.Sprintf("[%g, %g, %g]", v[0], v[1], v[2])
}

func FormatQuat(q mgl32.Quat) string {
	return fmt.Sprintf("[%g, %g, %g, %g]", q.V[0], q.V[1], q.V[2], q.W)
}

// SetTransform adds or replaces the Transform component.
func SetTransform(entry *donburi.Entry, t TransformData) {
	if !entry.HasComponent(Transform) {
		entry.AddComponent(Transform)
	}
	Transform.SetValue(entry, t)
}

// GlobalTransform resolves the world-space placement of e by composing its
// Transform with every ancestor that has one. An entity without a Transform
// that has a parent, such as a contained item, sits at its parent's placement.
// It reports false when nothing on the chain has a Transform.
func GlobalTransform(w donburi.World, e donburi.Entity) (TransformData, bool) {
	entry, ok := Lookup(w, e)
	if !ok {
		return TransformData{}, false
	}

	var global TransformData
	placed := false
	for depth := 0; depth < maxHierarchyDepth; depth++ {
		if entry.HasComponent(Transform) {
			if placed {
				global = Transform.GetValue(entry).Mul(global)
			} else {
				global = Transform.GetValue(entry)
				placed = true
			}
		}

		parent, ok := ParentOf(entry)
		if !ok {
			break
		}
		parentEntry, ok := Lookup(w, parent)
		if !ok {
			break
		}
		entry = parentEntry
	}

	return global, placed
}
