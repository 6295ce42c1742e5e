package overlay

import (
	"image"
	"math"
)

// DefaultDeadZone is the distance in pixels a pointer must travel before a
// press on an annotation becomes a drag.
const DefaultDeadZone = 4.0

// Mover commits a new annotation position.
type Mover interface {
	Move(id int, pos image.Point) error
}

// Drag tracks one annotation drag gesture. The live position follows the
// pointer and is committed once on End.
type Drag struct {
	DeadZone float64

	target   Mover
	id       int
	origin   image.Point
	grab     image.Point
	pointer  image.Point
	active   bool
	dragging bool
}

// NewDrag returns a drag helper that commits to target.
func NewDrag(target Mover) *Drag {
	return &Drag{DeadZone: DefaultDeadZone, target: target}
}

// BeginDrag starts a gesture on annotation id located at origin, with the
// pointer pressed at grab.
func (d *Drag) BeginDrag(id int, origin, grab image.Point) {
	d.id = id
	d.origin = origin
	d.grab = grab
	d.pointer = grab
	d.active = true
	d.dragging = false
}

// Active reports whether a gesture is in progress.
func (d *Drag) Active() bool { return d.active }

// ID returns the annotation being dragged.
func (d *Drag) ID() int { return d.id }

// Update records the pointer and returns the live annotation position.
func (d *Drag) Update(pointer image.Point) image.Point {
	if !d.active {
		return d.origin
	}
	d.pointer = pointer
	if !d.dragging {
		dx := float64(pointer.X - d.grab.X)
		dy := float64(pointer.Y - d.grab.Y)
		if math.Hypot(dx, dy) <= d.DeadZone {
			return d.origin
		}
		d.dragging = true
	}
	return d.origin.Add(pointer.Sub(d.grab))
}

// End finishes the gesture. It commits the final position when the pointer
// left the dead zone and reports whether it did.
func (d *Drag) End() (bool, error) {
	if !d.active {
		return false, nil
	}
	d.active = false
	if !d.dragging {
		return false, nil
	}
	d.dragging = false
	pos := d.origin.Add(d.pointer.Sub(d.grab))
	if err := d.target.Move(d.id, pos); err != nil {
		return false, err
	}
	return true, nil
}

// Cancel abandons the gesture without committing.
func (d *Drag) Cancel() {
	d.active = false
	d.dragging = false
}
