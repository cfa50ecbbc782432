package chart

import (
	"fmt"
	"image"
	"io"
	"sort"
	"sync"

	"github.com/fogleman/gg"
)

// Document resolves drawing surfaces and companion elements by id. It stands
// in for the host page the charts are embedded in.
type Document interface {
	Surface(id string) (*Surface, bool)
	Element(id string) (*Element, bool)
}

// Surface is an addressable drawing area sized by its container. Every
// render replaces the backing context with one matching the container's
// current size; nothing from a previous size is reused.
type Surface struct {
	id string

	mu              sync.Mutex
	containerWidth  int
	containerHeight int
	styleWidth      int
	styleHeight     int
	dc              *gg.Context
}

// NewSurface creates a surface whose container measures width x height.
func NewSurface(id string, width, height int) *Surface {
	return &Surface{id: id, containerWidth: width, containerHeight: height}
}

// ID returns the surface identifier.
func (s *Surface) ID() string { return s.id }

// SetContainerSize changes the container size used by the next render.
func (s *Surface) SetContainerSize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.containerWidth, s.containerHeight = width, height
}

// ContainerSize returns the container's client width and height.
func (s *Surface) ContainerSize() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.containerWidth, s.containerHeight
}

// StyleSize returns the display size applied by the last resize.
func (s *Surface) StyleSize() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.styleWidth, s.styleHeight
}

// resize matches pixel and display size to the container and returns a fresh
// drawing context. Degenerate containers are bumped to 1x1.
func (s *Surface) resize() *gg.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, h := max(s.containerWidth, 1), max(s.containerHeight, 1)
	s.styleWidth, s.styleHeight = w, h
	s.dc = gg.NewContext(w, h)
	return s.dc
}

// Image returns the painted pixels, or nil before the first render.
func (s *Surface) Image() image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dc == nil {
		return nil
	}
	return s.dc.Image()
}

// EncodePNG writes the painted surface as PNG.
func (s *Surface) EncodePNG(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dc == nil {
		return fmt.Errorf("encode %s: %w", s.id, ErrSurfaceNotPainted)
	}
	if err := s.dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encode %s: %w", s.id, err)
	}
	return nil
}

// Element is a companion element of a surface, such as a loading message.
type Element struct {
	id string

	mu     sync.Mutex
	hidden bool
}

// ID returns the element identifier.
func (e *Element) ID() string { return e.id }

// Hide sets the element's display to none.
func (e *Element) Hide() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hidden = true
}

// Show makes the element visible again.
func (e *Element) Show() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hidden = false
}

// Hidden reports whether Hide was called since the last Show.
func (e *Element) Hidden() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hidden
}

// Page is an in-memory Document. A Page is meant to be owned by a single
// request or command; it is safe for concurrent use but renders on distinct
// surfaces never interact.
type Page struct {
	mu       sync.RWMutex
	surfaces map[string]*Surface
	elements map[string]*Element
}

// NewPage returns an empty page.
func NewPage() *Page {
	return &Page{
		surfaces: make(map[string]*Surface),
		elements: make(map[string]*Element),
	}
}

// AddSurface registers a surface with the given container size, replacing any
// surface with the same id.
func (p *Page) AddSurface(id string, width, height int) *Surface {
	s := NewSurface(id, width, height)
	p.mu.Lock()
	p.surfaces[id] = s
	p.mu.Unlock()
	return s
}

// AddElement registers a visible companion element.
func (p *Page) AddElement(id string) *Element {
	e := &Element{id: id}
	p.mu.Lock()
	p.elements[id] = e
	p.mu.Unlock()
	return e
}

// Surface implements Document.
func (p *Page) Surface(id string) (*Surface, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.surfaces[id]
	return s, ok
}

// Element implements Document.
func (p *Page) Element(id string) (*Element, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, ok := p.elements[id]
	return e, ok
}

// SurfaceIDs lists registered surfaces in sorted order.
func (p *Page) SurfaceIDs() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ids := make([]string, 0, len(p.surfaces))
	for id := range p.surfaces {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
