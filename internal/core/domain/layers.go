package domain

import (
	"fmt"
	"html"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// LayerKind distinguishes the two layer families kept on the map.
type LayerKind int

const (
	KindMarker LayerKind = iota
	KindPolygon
)

func (k LayerKind) String() string {
	switch k {
	case KindMarker:
		return "marker"
	case KindPolygon:
		return "polygon"
	default:
		return fmt.Sprintf("LayerKind(%d)", int(k))
	}
}

// MarkerSpec describes how a user marker is rendered.
type MarkerSpec struct {
	Position LatLng `json:"position"`
	Label    string `json:"label"`
	Initial  string `json:"initial"`
	Online   bool   `json:"online"`
	Popup    string `json:"popup"`
}

// MarkerSpecFor builds the marker for a user. The caller must check
// User.Location first; a user without a location yields a zero position.
func MarkerSpecFor(u User) MarkerSpec {
	pos, _ := u.Location()
	return MarkerSpec{
		Position: pos,
		Label:    u.Name,
		Initial:  initial(u.Name),
		Online:   u.IsOnline,
		Popup:    "<strong>" + html.EscapeString(u.Name) + "</strong>",
	}
}

func initial(name string) string {
	r, _ := utf8.DecodeRuneInString(strings.TrimSpace(name))
	if r == utf8.RuneError {
		return ""
	}
	return string(unicode.ToUpper(r))
}

// PolygonSpec describes how a boundary polygon is rendered.
type PolygonSpec struct {
	Vertices    []LatLng `json:"vertices"`
	Color       string   `json:"color"`
	Weight      int      `json:"weight"`
	FillOpacity float64  `json:"fillOpacity"`
	Popup       string   `json:"popup"`
}

// Equal compares two specs including vertex order.
func (s PolygonSpec) Equal(o PolygonSpec) bool {
	return s.Color == o.Color && s.Weight == o.Weight && s.FillOpacity == o.FillOpacity &&
		s.Popup == o.Popup && slices.Equal(s.Vertices, o.Vertices)
}

// PolygonSpecFor builds the polygon for a boundary.
func PolygonSpecFor(b Boundary) PolygonSpec {
	color := b.Color
	if color == "" {
		color = DefaultBoundaryColor
	}
	return PolygonSpec{
		Vertices:    slices.Clone(b.Coords),
		Color:       color,
		Weight:      2,
		FillOpacity: 0.2,
		Popup:       "<strong>" + html.EscapeString(b.Name) + "</strong>",
	}
}

// ScratchSpec is the provisional style of a shape that was just drawn.
func ScratchSpec(vertices []LatLng) PolygonSpec {
	return PolygonSpec{
		Vertices:    slices.Clone(vertices),
		Color:       DefaultBoundaryColor,
		Weight:      2,
		FillOpacity: 0.2,
	}
}

// DrawEventType enumerates events emitted by the native drawing tool.
type DrawEventType string

const (
	DrawStart    DrawEventType = "draw_start"
	ShapeCreated DrawEventType = "shape_created"
	DrawStop     DrawEventType = "draw_stop"
)

// DrawEvent is a single event from the native drawing tool. Vertices is
// only set for ShapeCreated and keeps the order the user drew them in.
type DrawEvent struct {
	Type     DrawEventType `json:"type"`
	Vertices []LatLng      `json:"vertices,omitempty"`
}
