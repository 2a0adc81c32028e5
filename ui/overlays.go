package ui

import (
	"strings"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// OverlayID names a view layer drawn over the density texture.
type OverlayID string

const (
	OverlaySpeed    OverlayID = "speed"    // shade by |velocity| instead of density
	OverlayVelocity OverlayID = "velocity" // arrows on a coarse lattice
	OverlayBorder   OverlayID = "border"   // outline of the interior cells
)

// Overlay is one toggleable layer and the key bound to it.
type Overlay struct {
	ID    OverlayID
	Name  string
	Key   int32
	Label string // key as shown in the legend
	On    bool
}

// Overlays is the ordered set of view layers, all off initially.
type Overlays struct {
	list []Overlay
}

// NewOverlays registers the speed, velocity and border layers.
func NewOverlays() *Overlays {
	return &Overlays{list: []Overlay{
		{ID: OverlaySpeed, Name: "Speed", Key: rl.KeyM, Label: "M"},
		{ID: OverlayVelocity, Name: "Velocity", Key: rl.KeyV, Label: "V"},
		{ID: OverlayBorder, Name: "Border", Key: rl.KeyB, Label: "B"},
	}}
}

func (o *Overlays) find(id OverlayID) *Overlay {
	for i := range o.list {
		if o.list[i].ID == id {
			return &o.list[i]
		}
	}
	return nil
}

// Enabled reports whether id is on. Unknown ids are off.
func (o *Overlays) Enabled(id OverlayID) bool {
	ov := o.find(id)
	return ov != nil && ov.On
}

// HandleKey toggles the layer bound to key and returns it, or nil when no
// layer uses the key.
func (o *Overlays) HandleKey(key int32) *Overlay {
	for i := range o.list {
		if o.list[i].Key == key {
			o.list[i].On = !o.list[i].On
			return &o.list[i]
		}
	}
	return nil
}

// Legend lists "key: name" pairs; enabled layers are marked with '*'.
func (o *Overlays) Legend() string {
	parts := make([]string, len(o.list))
	for i, ov := range o.list {
		parts[i] = ov.Label + ": " + ov.Name
		if ov.On {
			parts[i] += "*"
		}
	}
	return strings.Join(parts, " | ")
}
