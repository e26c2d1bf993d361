package wsmap

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/samirrijal/smarttrack/internal/core/domain"
	"github.com/samirrijal/smarttrack/internal/core/ports"
)

// Transport delivers encoded messages to the browser. Send must be safe
// for concurrent use.
type Transport interface {
	Send(data []byte) error
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(data []byte) error

func (f TransportFunc) Send(data []byte) error { return f(data) }

func send(t Transport, m ServerMessage) error {
	data, err := Encode(m)
	if err != nil {
		return err
	}
	return t.Send(data)
}

type layerHandle string

func (h layerHandle) LayerID() string { return string(h) }

// Surface is a map rendered in a remote browser. Layer handles are ids
// the browser uses to address its Leaflet layers.
type Surface struct {
	id string
	t  Transport

	mu         sync.Mutex
	listeners  map[uint64]ports.DrawListener
	nextListen uint64
	destroyed  bool
}

var _ ports.Surface = (*Surface)(nil)

func (s *Surface) ID() string { return s.id }

func (s *Surface) send(m ServerMessage) error {
	s.mu.Lock()
	dead := s.destroyed
	s.mu.Unlock()
	if dead {
		return domain.ErrSurfaceClosed
	}
	m.Surface = s.id
	return send(s.t, m)
}

func (s *Surface) SetView(vp domain.Viewport) error {
	return s.send(ServerMessage{Op: OpSetView, View: &vp})
}

func (s *Surface) AddMarker(spec domain.MarkerSpec) (ports.LayerHandle, error) {
	h := layerHandle(uuid.NewString())
	if err := s.send(ServerMessage{Op: OpAddMarker, Layer: string(h), Marker: &spec}); err != nil {
		return nil, err
	}
	return h, nil
}

func (s *Surface) UpdateMarker(h ports.LayerHandle, spec domain.MarkerSpec) error {
	return s.send(ServerMessage{Op: OpUpdateMarker, Layer: h.LayerID(), Marker: &spec})
}

func (s *Surface) AddPolygon(spec domain.PolygonSpec) (ports.LayerHandle, error) {
	h := layerHandle(uuid.NewString())
	if err := s.send(ServerMessage{Op: OpAddPolygon, Layer: string(h), Polygon: &spec}); err != nil {
		return nil, err
	}
	return h, nil
}

func (s *Surface) AddScratch(spec domain.PolygonSpec) (ports.LayerHandle, error) {
	h := layerHandle(uuid.NewString())
	if err := s.send(ServerMessage{Op: OpAddScratch, Layer: string(h), Polygon: &spec}); err != nil {
		return nil, err
	}
	return h, nil
}

func (s *Surface) RemoveLayer(h ports.LayerHandle) error {
	return s.send(ServerMessage{Op: OpRemoveLayer, Layer: h.LayerID()})
}

func (s *Surface) SetHint(text string) error {
	return s.send(ServerMessage{Op: OpHint, Text: text})
}

func (s *Surface) Notify(level, message string) error {
	return s.send(ServerMessage{Op: OpNotify, Level: level, Text: message})
}

func (s *Surface) OnDrawEvent(l ports.DrawListener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextListen++
	key := s.nextListen
	s.listeners[key] = l
	return func() {
		s.mu.Lock()
		delete(s.listeners, key)
		s.mu.Unlock()
	}
}

// Dispatch delivers a draw event reported by the browser to every
// registered listener.
func (s *Surface) Dispatch(ev domain.DrawEvent) {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	ls := make([]ports.DrawListener, 0, len(s.listeners))
	for _, l := range s.listeners {
		ls = append(ls, l)
	}
	s.mu.Unlock()

	for _, l := range ls {
		l(ev)
	}
}

func (s *Surface) Destroy() error {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return nil
	}
	s.destroyed = true
	clear(s.listeners)
	s.mu.Unlock()

	err := send(s.t, ServerMessage{Op: OpDestroy, Surface: s.id})
	if errors.Is(err, ErrTransportClosed) {
		return nil
	}
	return err
}

// ErrTransportClosed is returned by transports whose peer has gone away.
var ErrTransportClosed = errors.New("transport closed")

// Factory creates browser surfaces on one connection.
type Factory struct {
	t Transport

	mu      sync.Mutex
	current *Surface
}

// NewFactory creates a Factory writing to t.
func NewFactory(t Transport) *Factory {
	return &Factory{t: t}
}

// CreateSurface asks the browser to build a map at the initial viewport.
func (f *Factory) CreateSurface(ctx context.Context, initial domain.Viewport) (ports.Surface, error) {
	s := &Surface{
		id:        uuid.NewString(),
		t:         f.t,
		listeners: make(map[uint64]ports.DrawListener),
	}
	f.mu.Lock()
	f.current = s
	f.mu.Unlock()
	if err := send(f.t, ServerMessage{Op: OpCreateSurface, Surface: s.id, View: &initial}); err != nil {
		return nil, err
	}
	return s, nil
}

// Current returns the most recently created surface, or nil.
func (f *Factory) Current() *Surface {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}
