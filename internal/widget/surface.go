package widget

import "sync"

// CloseReason records how an expanded surface was dismissed.
type CloseReason string

const (
	CloseButton  CloseReason = "button"
	CloseOutside CloseReason = "outside"
)

type surfaceKey struct {
	node  string
	param string
}

// Surfaces tracks which expanded editing surfaces are open. A surface has no
// value of its own: it presents the owning widget's value and sends edits
// through the owning widget's Change, so opening and closing never write
// parameters.
type Surfaces struct {
	mu   sync.Mutex
	open map[surfaceKey]struct{}
}

// NewSurfaces creates an empty tracker.
func NewSurfaces() *Surfaces {
	return &Surfaces{open: make(map[surfaceKey]struct{})}
}

// Open opens the surface of param on node. It reports whether the surface
// was closed before; opening an open surface is a no-op.
func (s *Surfaces) Open(node, param string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := surfaceKey{node: node, param: param}
	if _, ok := s.open[k]; ok {
		return false
	}
	s.open[k] = struct{}{}
	return true
}

// Close dismisses the surface. Both reasons behave the same; nothing is saved.
// It reports whether the surface was open.
func (s *Surfaces) Close(node, param string, _ CloseReason) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := surfaceKey{node: node, param: param}
	if _, ok := s.open[k]; !ok {
		return false
	}
	delete(s.open, k)
	return true
}

// IsOpen reports whether the surface of param on node is open.
func (s *Surfaces) IsOpen(node, param string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.open[surfaceKey{node: node, param: param}]
	return ok
}

// Forget closes every surface of node.
func (s *Surfaces) Forget(node string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.open {
		if k.node == node {
			delete(s.open, k)
		}
	}
}

// Mark sets the surface state of the expandable widgets in ws for node.
func (s *Surfaces) Mark(node string, ws []*Widget) {
	for _, w := range ws {
		if w.Surface != nil {
			w.Surface.Open = s.IsOpen(node, w.Name)
		}
	}
}
