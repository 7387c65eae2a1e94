package wl

import (
	"github.com/mavrogato/othones/domain/entities"
	"github.com/mavrogato/othones/proxy"
)

// ShmFormat is a pixel format code. Codes other than the two below are
// DRM fourcc values.
type ShmFormat uint32

const (
	ShmFormatARGB8888 ShmFormat = 0
	ShmFormatXRGB8888 ShmFormat = 1
)

// BytesPerPixel returns the pixel size of the 32-bit formats, or 0.
func (f ShmFormat) BytesPerPixel() int32 {
	switch f {
	case ShmFormatARGB8888, ShmFormatXRGB8888:
		return 4
	}
	return 0
}

const shmCreatePool = 0

// ShmFormatEvent announces a supported pixel format.
type ShmFormatEvent struct {
	Format ShmFormat
}

// Shm is the shared memory global.
type Shm struct {
	Format func(ShmFormatEvent)
}

var shmDescriptor = &proxy.Descriptor[Shm]{
	Interface: entities.Interface{Name: "wl_shm", Version: 1},
	Release:   proxy.Forget,
	Events: []proxy.Event[Shm]{
		proxy.NewEvent("format", func(l *Shm) func(ShmFormatEvent) { return l.Format }),
	},
}

func (Shm) Descriptor() *proxy.Descriptor[Shm] { return shmDescriptor }

// CreatePool creates a pool backed by fd, which the caller keeps.
func CreatePool(s *proxy.Proxy[Shm], fd entities.FD, size int32) (*proxy.Proxy[ShmPool], error) {
	return proxy.NewChild[ShmPool](s, shmCreatePool, entities.FDArg(fd), entities.Int(size))
}

// wl_shm_pool requests.
const (
	shmPoolCreateBuffer = 0
	shmPoolDestroy      = 1
	shmPoolResize       = 2
)

// ShmPool is a memory pool buffers are carved from.
type ShmPool struct{}

var shmPoolDescriptor = &proxy.Descriptor[ShmPool]{
	Interface: entities.Interface{Name: "wl_shm_pool", Version: 1},
	Release:   proxy.DestroyRequest(shmPoolDestroy),
}

func (ShmPool) Descriptor() *proxy.Descriptor[ShmPool] { return shmPoolDescriptor }

// CreateBuffer creates a buffer from the pool.
func CreateBuffer(p *proxy.Proxy[ShmPool], offset, width, height, stride int32, format ShmFormat) (*proxy.Proxy[Buffer], error) {
	return proxy.NewChild[Buffer](p, shmPoolCreateBuffer,
		entities.Int(offset), entities.Int(width), entities.Int(height), entities.Int(stride), entities.Uint(uint32(format)))
}

// Resize grows the pool.
func Resize(p *proxy.Proxy[ShmPool], size int32) error {
	return p.Send(shmPoolResize, entities.Int(size))
}

const bufferDestroy = 0

// BufferRelease reports that the compositor no longer reads the buffer.
type BufferRelease struct{}

// Buffer holds the content of a surface.
type Buffer struct {
	Release func(BufferRelease)
}

var bufferDescriptor = &proxy.Descriptor[Buffer]{
	Interface: entities.Interface{Name: "wl_buffer", Version: 1},
	Release:   proxy.DestroyRequest(bufferDestroy),
	Events: []proxy.Event[Buffer]{
		proxy.NewEvent("release", func(l *Buffer) func(BufferRelease) { return l.Release }),
	},
}

func (Buffer) Descriptor() *proxy.Descriptor[Buffer] { return bufferDescriptor }
