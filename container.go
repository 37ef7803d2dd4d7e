package tilecam

import "github.com/phanxgames/tilecam/gfx"

// Entity is anything a Container can draw.
type Entity interface {
	Render(projection, modelView *gfx.Mat4)
}

// Attachable entities are told when they join or leave a rendered tree.
// parent is the Space they are drawn in; rc is valid until OnRemoved.
type Attachable interface {
	OnAdded(parent Space, rc *RenderContext)
	OnRemoved()
}

// Updater entities advance with Screen.Update.
type Updater interface {
	Update(dt float32)
}

// SceneContainer is what a Camera draws during its scene pass.
type SceneContainer interface {
	Render(projection, modelView *gfx.Mat4)
	IsVisible() bool
}

type containerEntry struct {
	entity Entity
	layer  int
}

// Container draws its entities in ascending layer order. Entities on the
// same layer keep their insertion order.
type Container struct {
	// Visible gates rendering. Defaults to true.
	Visible bool

	owner Space
	rc    *RenderContext

	entries     []containerEntry
	sorted      []containerEntry
	sortedDirty bool
}

var (
	_ SceneContainer = (*Container)(nil)
	_ Attachable     = (*Container)(nil)
)

// NewContainer returns an empty, visible container.
func NewContainer() *Container {
	return &Container{Visible: true}
}

// IsVisible reports whether the container renders.
func (c *Container) IsVisible() bool {
	return c.Visible
}

// Add appends e on the given layer. If the container is attached, e is
// attached too.
func (c *Container) Add(e Entity, layer int) {
	c.entries = append(c.entries, containerEntry{entity: e, layer: layer})
	c.sortedDirty = true
	if c.rc != nil {
		if a, ok := e.(Attachable); ok {
			a.OnAdded(c.owner, c.rc)
		}
	}
}

// Remove detaches and removes e. It reports whether e was present.
func (c *Container) Remove(e Entity) bool {
	for i, entry := range c.entries {
		if entry.entity != e {
			continue
		}
		c.entries = append(c.entries[:i], c.entries[i+1:]...)
		c.sortedDirty = true
		if c.rc != nil {
			if a, ok := e.(Attachable); ok {
				a.OnRemoved()
			}
		}
		return true
	}
	return false
}

// SetLayer moves e to another layer, behind entities already on it.
func (c *Container) SetLayer(e Entity, layer int) {
	for i, entry := range c.entries {
		if entry.entity == e {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			c.entries = append(c.entries, containerEntry{entity: e, layer: layer})
			c.sortedDirty = true
			return
		}
	}
}

// Len returns the number of entities.
func (c *Container) Len() int {
	return len(c.entries)
}

// Entities returns the entities in draw order.
func (c *Container) Entities() []Entity {
	c.sortEntries()
	out := make([]Entity, len(c.sorted))
	for i, entry := range c.sorted {
		out[i] = entry.entity
	}
	return out
}

// Render draws every entity with the given matrices.
func (c *Container) Render(projection, modelView *gfx.Mat4) {
	if !c.Visible {
		return
	}
	c.sortEntries()
	for _, entry := range c.sorted {
		entry.entity.Render(projection, modelView)
	}
}

// Update forwards dt to entities implementing Updater.
func (c *Container) Update(dt float32) {
	for _, entry := range c.entries {
		if u, ok := entry.entity.(Updater); ok {
			u.Update(dt)
		}
	}
}

// OnAdded attaches the container and all its entities to parent.
func (c *Container) OnAdded(parent Space, rc *RenderContext) {
	c.owner = parent
	c.rc = rc
	for _, entry := range c.entries {
		if a, ok := entry.entity.(Attachable); ok {
			a.OnAdded(parent, rc)
		}
	}
}

// OnRemoved detaches all entities.
func (c *Container) OnRemoved() {
	if c.rc == nil {
		return
	}
	for _, entry := range c.entries {
		if a, ok := entry.entity.(Attachable); ok {
			a.OnRemoved()
		}
	}
	c.owner = nil
	c.rc = nil
}

// sortEntries rebuilds the layer-sorted order with a stable insertion sort;
// the entry list is usually short and already sorted.
func (c *Container) sortEntries() {
	if !c.sortedDirty && len(c.sorted) == len(c.entries) {
		return
	}
	n := len(c.entries)
	if cap(c.sorted) < n {
		c.sorted = make([]containerEntry, n)
	}
	c.sorted = c.sorted[:n]
	copy(c.sorted, c.entries)
	for i := 1; i < n; i++ {
		key := c.sorted[i]
		j := i - 1
		for j >= 0 && c.sorted[j].layer > key.layer {
			c.sorted[j+1] = c.sorted[j]
			j--
		}
		c.sorted[j+1] = key
	}
	c.sortedDirty = false
}
