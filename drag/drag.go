// Package drag tracks the position of a movable panel and turns pointer
// drags into clamped coordinate updates.
package drag

import "sync"

const (
	defaultPanelWidth     = 350
	defaultPanelHeight    = 400
	defaultViewportWidth  = 1024
	defaultViewportHeight = 768
)

// Coordinate is a cell offset of the panel's top-left corner.
type Coordinate struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Add returns c translated by d.
func (c Coordinate) Add(d Coordinate) Coordinate {
	return Coordinate{X: c.X + d.X, Y: c.Y + d.Y}
}

// Sub returns the delta from d to c.
func (c Coordinate) Sub(d Coordinate) Coordinate {
	return Coordinate{X: c.X - d.X, Y: c.Y - d.Y}
}

// Extent is a width/height pair used for both panel and viewport sizes.
type Extent struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// ViewportFunc reports the current viewport size. It is called on every
// move so resizes between drags are picked up.
type ViewportFunc func() Extent

// Option configures a Controller.
type Option func(*Controller)

// WithPanelExtent sets the panel size used for clamping.
func WithPanelExtent(e Extent) Option {
	return func(c *Controller) {
		if e.Width > 0 && e.Height > 0 {
			c.panel = e
		}
	}
}

// WithViewport sets the viewport size source.
func WithViewport(fn ViewportFunc) Option {
	return func(c *Controller) {
		if fn != nil {
			c.viewport = fn
		}
	}
}

// WithHooks registers callbacks fired when a drag starts and ends.
func WithHooks(onStart, onEnd func()) Option {
	return func(c *Controller) {
		c.onStart = onStart
		c.onEnd = onEnd
	}
}

// session is the transient state of an active drag.
type session struct {
	originPointer Coordinate
	originPanel   Coordinate
	sub           *Subscription
}

// Controller owns the panel coordinate and the active drag, if any.
type Controller struct {
	mu       sync.Mutex
	initial  Coordinate
	current  Coordinate
	panel    Extent
	viewport ViewportFunc
	active   *session

	onStart func()
	onEnd   func()
}

// New creates a controller positioned at initial. The initial coordinate
// is kept verbatim for ResetPosition.
func New(initial Coordinate, opts ...Option) *Controller {
	c := &Controller{
		initial: initial,
		current: initial,
		panel:   Extent{Width: defaultPanelWidth, Height: defaultPanelHeight},
		viewport: func() Extent {
			return Extent{Width: defaultViewportWidth, Height: defaultViewportHeight}
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Position returns the current coordinate.
func (c *Controller) Position() Coordinate {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Initial returns the coordinate passed to New.
func (c *Controller) Initial() Coordinate {
	return c.initial
}

// Dragging reports whether a drag is in progress.
func (c *Controller) Dragging() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active != nil
}

// PanelExtent returns the panel size used for clamping.
func (c *Controller) PanelExtent() Extent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.panel
}

// SetPanelExtent updates the panel size. Non-positive sizes are ignored.
func (c *Controller) SetPanelExtent(e Extent) {
	if e.Width <= 0 || e.Height <= 0 {
		return
	}
	c.mu.Lock()
	c.panel = e
	c.mu.Unlock()
}

// BeginDrag starts a drag at pointer and returns the subscription that
// receives moves until released. A drag already in progress is ended first.
func (c *Controller) BeginDrag(pointer Coordinate) *Subscription {
	c.mu.Lock()
	prev := c.active
	c.mu.Unlock()
	if prev != nil {
		prev.sub.Release()
	}

	sub := &Subscription{ctrl: c}
	c.mu.Lock()
	c.active = &session{
		originPointer: pointer,
		originPanel:   c.current,
		sub:           sub,
	}
	onStart := c.onStart
	c.mu.Unlock()

	if onStart != nil {
		onStart()
	}
	return sub
}

// OnPointerMove applies a pointer move to the active drag and returns the
// resulting coordinate. Without an active drag the position is unchanged.
func (c *Controller) OnPointerMove(pointer Coordinate) Coordinate {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return c.current
	}
	return c.moveLocked(c.active, pointer)
}

// EndDrag ends the active drag. Without one it does nothing.
func (c *Controller) EndDrag() {
	c.mu.Lock()
	s := c.active
	c.mu.Unlock()
	if s != nil {
		s.sub.Release()
	}
}

// ResetPosition restores the coordinate passed to New.
func (c *Controller) ResetPosition() {
	c.mu.Lock()
	c.current = c.initial
	c.mu.Unlock()
}

// Clamp pins p inside the current viewport for the current panel size.
func (c *Controller) Clamp(p Coordinate) Coordinate {
	c.mu.Lock()
	defer c.mu.Unlock()
	return clamp(p, c.viewport(), c.panel)
}

func (c *Controller) moveLocked(s *session, pointer Coordinate) Coordinate {
	delta := pointer.Sub(s.originPointer)
	c.current = clamp(s.originPanel.Add(delta), c.viewport(), c.panel)
	return c.current
}

// release detaches s if it is still the active drag. It reports whether the
// drag was ended by this call.
func (c *Controller) release(s *Subscription) bool {
	c.mu.Lock()
	if c.active == nil || c.active.sub != s {
		c.mu.Unlock()
		return false
	}
	c.active = nil
	onEnd := c.onEnd
	c.mu.Unlock()

	if onEnd != nil {
		onEnd()
	}
	return true
}

func clamp(p Coordinate, viewport, panel Extent) Coordinate {
	return Coordinate{
		X: clampAxis(p.X, viewport.Width-panel.Width),
		Y: clampAxis(p.Y, viewport.Height-panel.Height),
	}
}

func clampAxis(v, upper int) int {
	upper = max(upper, 0)
	return min(max(v, 0), upper)
}
