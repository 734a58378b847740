package maprender

import "fmt"

// LayerType is how the shapes of a layer are drawn.
type LayerType int

// see LayerType
const (
	LayerPoint LayerType = iota
	LayerLine
	LayerPolygon
	LayerAnnotation // labels only, their markers are drawn with placed labels
)

func (t LayerType) String() string {
	switch t {
	case LayerPoint:
		return "point"
	case LayerLine:
		return "line"
	case LayerPolygon:
		return "polygon"
	case LayerAnnotation:
		return "annotation"
	}
	return fmt.Sprintf("LayerType(%d)", int(t))
}

// ParseLayerType parses a layer type name.
func ParseLayerType(s string) (LayerType, error) {
	for t := LayerPoint; t <= LayerAnnotation; t++ {
		if s == t.String() {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown layer type %q", s)
}

// Class is a group of styles and labels applied to the shapes that resolve to it.
type Class struct {
	Name   string
	Styles []Style
	Labels []Label

	MinScaleDenom, MaxScaleDenom float64
}

// Layer is a list of device space shapes drawn with their classes.
type Layer struct {
	Name    string
	Type    LayerType
	Opacity float64 // in [0,100]
	Classes []Class
	Shapes  []*Shape

	// SymbolScaleDenom is the scale at which sizes are given, zero keeps sizes fixed
	SymbolScaleDenom float64

	MinScaleDenom, MaxScaleDenom float64
}

// NewLayer returns an opaque layer.
func NewLayer(name string, typ LayerType) *Layer {
	return &Layer{Name: name, Type: typ, Opacity: 100.0}
}

// Add appends a shape of class.
func (l *Layer) Add(s *Shape, class int) {
	s.Class = class
	l.Shapes = append(l.Shapes, s)
}

// class returns the class of s when it is visible at the scale denominator.
func (l *Layer) class(s *Shape, scaleDenom float64) *Class {
	if s.Class < 0 || len(l.Classes) <= s.Class {
		return nil
	}
	c := &l.Classes[s.Class]
	if !inScale(scaleDenom, c.MinScaleDenom, c.MaxScaleDenom) {
		return nil
	}
	return c
}
