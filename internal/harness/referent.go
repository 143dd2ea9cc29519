package harness

import (
	"fmt"

	"github.com/roach88/tether"
)

// Plate is the capability view a Widget exposes besides itself. It
// sits at a nonzero offset inside Widget, so an upcast genuinely
// adjusts the address.
type Plate struct {
	Label string
}

// Widget is the harness referent: a value with its own liveness
// factory, destroyed by scenario `destroy` steps.
type Widget struct {
	Value int64
	Plate
	fac *tether.Factory[Widget]
}

func newWidget(value int64, label string) *Widget {
	w := &Widget{Value: value, Plate: Plate{Label: label}}
	w.fac = tether.NewFactory(w)
	return w
}

// destroy is the referent's teardown path.
func (w *Widget) destroy() {
	w.fac.Invalidate()
}

func plateOf(w *Widget) *Plate { return &w.Plate }

// derefValue is what a deref observed: exactly one of the fields is
// set, depending on the view.
type derefValue struct {
	value *int64
	label *string
}

// slot erases the view type of one named ref in a scenario.
// Implementations hold the ref by value and are addressed through
// pointers because move consumes in place.
type slot interface {
	deref() derefValue
	clone() slot
	move() slot
	drop()
	upcast(mode string) (slot, error)
	// matches reports whether the slot's resolved address belongs to w
	// (the referent itself, or w's view for upcast slots).
	matches(w *Widget) bool
}

// widgetSlot holds a Ref[Widget].
type widgetSlot struct {
	ref tether.Ref[Widget]
}

func (s *widgetSlot) deref() derefValue {
	w := s.ref.Get()
	return derefValue{value: &w.Value}
}

func (s *widgetSlot) clone() slot { return &widgetSlot{ref: s.ref.Clone()} }
func (s *widgetSlot) move() slot  { return &widgetSlot{ref: s.ref.Move()} }
func (s *widgetSlot) drop()       { s.ref.Drop() }

func (s *widgetSlot) upcast(mode string) (slot, error) {
	switch mode {
	case "", "clone":
		return &plateSlot{ref: tether.CloneAs(s.ref, plateOf)}, nil
	case "move":
		return &plateSlot{ref: tether.MoveAs(&s.ref, plateOf)}, nil
	default:
		return nil, fmt.Errorf("unknown upcast mode %q (want clone or move)", mode)
	}
}

func (s *widgetSlot) matches(w *Widget) bool { return s.ref.Get() == w }

// plateSlot holds a Ref[Plate] produced by an upcast.
type plateSlot struct {
	ref tether.Ref[Plate]
}

func (s *plateSlot) deref() derefValue {
	p := s.ref.Get()
	return derefValue{label: &p.Label}
}

func (s *plateSlot) clone() slot { return &plateSlot{ref: s.ref.Clone()} }
func (s *plateSlot) move() slot  { return &plateSlot{ref: s.ref.Move()} }
func (s *plateSlot) drop()       { s.ref.Drop() }

func (s *plateSlot) upcast(string) (slot, error) {
	return nil, fmt.Errorf("plate view has no further upcasts")
}

func (s *plateSlot) matches(w *Widget) bool { return s.ref.Get() == &w.Plate }
