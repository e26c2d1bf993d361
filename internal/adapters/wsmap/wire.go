// Package wsmap drives a browser-side map over a websocket. The server
// owns all map state; the browser only executes rendering ops and reports
// user input.
package wsmap

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/samirrijal/smarttrack/internal/core/domain"
)

// Server to client ops.
const (
	OpCreateSurface = "create_surface"
	OpSetView       = "set_view"
	OpAddMarker     = "add_marker"
	OpUpdateMarker  = "update_marker"
	OpAddPolygon    = "add_polygon"
	OpAddScratch    = "add_scratch"
	OpRemoveLayer   = "remove_layer"
	OpHint          = "hint"
	OpNotify        = "notify"
	OpPrompt        = "prompt"
	OpSearchResults = "search_results"
	OpDestroy       = "destroy"
	OpError         = "error"
)

// Client to server ops. The draw ops reuse the domain event names.
const (
	OpDrawStart     = string(domain.DrawStart)
	OpShapeCreated  = string(domain.ShapeCreated)
	OpDrawStop      = string(domain.DrawStop)
	OpPromptAnswer  = "prompt_answer"
	OpRequestView   = "set_view"
	OpFocusUser     = "focus_user"
	OpFocusBoundary = "focus_boundary"
	OpSelectPlace   = "select_place"
	OpSearch        = "search"
)

// ServerMessage is one rendering op sent to the browser.
type ServerMessage struct {
	Op       string                 `json:"op"`
	Surface  string                 `json:"surface,omitempty"`
	Layer    string                 `json:"layer,omitempty"`
	View     *domain.Viewport       `json:"view,omitempty"`
	Marker   *domain.MarkerSpec     `json:"marker,omitempty"`
	Polygon  *domain.PolygonSpec    `json:"polygon,omitempty"`
	Text     string                 `json:"text,omitempty"`
	Level    string                 `json:"level,omitempty"`
	PromptID string                 `json:"promptId,omitempty"`
	Query    string                 `json:"query,omitempty"`
	Results  []domain.GeocodeResult `json:"results,omitempty"`
}

// ClientMessage is one input event from the browser.
type ClientMessage struct {
	Op         string           `json:"op"`
	Vertices   []domain.LatLng  `json:"vertices,omitempty"`
	PromptID   string           `json:"promptId,omitempty"`
	Answer     string           `json:"answer,omitempty"`
	Cancelled  bool             `json:"cancelled,omitempty"`
	View       *domain.Viewport `json:"view,omitempty"`
	UserID     string           `json:"userId,omitempty"`
	BoundaryID string           `json:"boundaryId,omitempty"`
	Place      *domain.LatLng   `json:"place,omitempty"`
	Query      string           `json:"query,omitempty"`
}

// Encode serializes a server message.
func Encode(m ServerMessage) ([]byte, error) {
	return json.Marshal(m)
}

// Decode parses a client message.
func Decode(data []byte) (ClientMessage, error) {
	var m ClientMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("decode client message: %w", err)
	}
	if m.Op == "" {
		return m, fmt.Errorf("decode client message: missing op")
	}
	return m, nil
}

// DrawEvent converts a draw op to a domain event.
func (m ClientMessage) DrawEvent() (domain.DrawEvent, bool) {
	switch m.Op {
	case OpDrawStart, OpShapeCreated, OpDrawStop:
		return domain.DrawEvent{Type: domain.DrawEventType(m.Op), Vertices: m.Vertices}, true
	default:
		return domain.DrawEvent{}, false
	}
}
