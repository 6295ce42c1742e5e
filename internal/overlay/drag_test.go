package overlay

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDragCommitsOnRelease(t *testing.T) {
	m := NewManager()
	a := m.Add("x", "5", image.Pt(30, 40))
	d := NewDrag(m)

	d.BeginDrag(a.ID, a.Position, image.Pt(35, 45))
	live := d.Update(image.Pt(85, 145))
	assert.Equal(t, image.Pt(80, 140), live)

	// Nothing is committed while the pointer is held.
	got, _ := m.Get(a.ID)
	assert.Equal(t, image.Pt(30, 40), got.Position)

	moved, err := d.End()
	require.NoError(t, err)
	assert.True(t, moved)
	got, _ = m.Get(a.ID)
	assert.Equal(t, image.Pt(80, 140), got.Position)
	assert.False(t, d.Active())

	moved, err = d.End()
	require.NoError(t, err)
	assert.False(t, moved)
}

func TestDragDeadZoneIsClick(t *testing.T) {
	m := NewManager()
	a := m.Add("x", "5", image.Pt(30, 40))
	d := NewDrag(m)

	d.BeginDrag(a.ID, a.Position, image.Pt(30, 40))
	assert.Equal(t, image.Pt(30, 40), d.Update(image.Pt(32, 42)))
	moved, err := d.End()
	require.NoError(t, err)
	assert.False(t, moved)
	got, _ := m.Get(a.ID)
	assert.Equal(t, image.Pt(30, 40), got.Position)
}

func TestDragUnknownTarget(t *testing.T) {
	m := NewManager()
	d := NewDrag(m)
	d.BeginDrag(7, image.Point{}, image.Point{})
	d.Update(image.Pt(50, 50))
	_, err := d.End()
	assert.ErrorIs(t, err, ErrUnknownAnnotation)
}

func TestDragCancel(t *testing.T) {
	m := NewManager()
	a := m.Add("x", "5", image.Pt(0, 0))
	d := NewDrag(m)
	d.BeginDrag(a.ID, a.Position, image.Point{})
	d.Update(image.Pt(40, 40))
	d.Cancel()
	moved, err := d.End()
	require.NoError(t, err)
	assert.False(t, moved)
	got, _ := m.Get(a.ID)
	assert.Equal(t, image.Pt(0, 0), got.Position)
}
