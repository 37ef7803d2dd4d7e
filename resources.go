package tilecam

import (
	"errors"

	"github.com/phanxgames/tilecam/gfx"
)

// ErrResourcesInitialised is returned by InitGraphicsResources when the
// shared resources already belong to a different device.
var ErrResourcesInitialised = errors.New("tilecam: graphics resources already initialised for another device")

// GraphicsResources holds the programs shared by every camera: the default
// quad shader and the MSAA resolver. There is one instance per process.
type GraphicsResources struct {
	dev         gfx.Device
	initialised bool
	quad        *Shader
	resolver    *MSAAResolver
}

var shared GraphicsResources

// InitGraphicsResources compiles the shared programs on dev. Calling it again
// with the same device returns the existing resources; calling it with a
// different device before Shutdown fails with ErrResourcesInitialised.
func InitGraphicsResources(dev gfx.Device) (*GraphicsResources, error) {
	if shared.initialised {
		if shared.dev == dev {
			return &shared, nil
		}
		return nil, ErrResourcesInitialised
	}

	quad, err := NewShader(dev, QuadShaderSource)
	if err != nil {
		return nil, err
	}
	resolver, err := newMSAAResolver(dev)
	if err != nil {
		quad.Release(dev)
		return nil, err
	}

	shared = GraphicsResources{
		dev:         dev,
		initialised: true,
		quad:        quad,
		resolver:    resolver,
	}
	return &shared, nil
}

// Shutdown deletes the shared programs. InitGraphicsResources may be called
// again afterwards, with any device.
func (r *GraphicsResources) Shutdown() {
	if !r.initialised {
		return
	}
	r.quad.Release(r.dev)
	r.resolver.shader.Release(r.dev)
	*r = GraphicsResources{}
}

// Initialised reports whether the resources are ready for use.
func (r *GraphicsResources) Initialised() bool {
	return r.initialised
}

// Device returns the device the resources were compiled on.
func (r *GraphicsResources) Device() gfx.Device {
	return r.dev
}

// QuadShader returns the default composite shader.
func (r *GraphicsResources) QuadShader() *Shader {
	return r.quad
}

// Resolver returns the MSAA resolver.
func (r *GraphicsResources) Resolver() *MSAAResolver {
	return r.resolver
}
