// Package shm allocates wl_buffer objects backed by anonymous shared
// memory.
package shm

import (
	"fmt"
	"log/slog"
	"os"
	"unsafe"

	"github.com/mavrogato/othones/domain/entities"
	"github.com/mavrogato/othones/protocol/wl"
	"github.com/mavrogato/othones/proxy"
	"golang.org/x/sys/unix"
)

// memfdCreate is replaced in tests to exercise the file fallback.
var memfdCreate = unix.MemfdCreate

type allocConfig struct {
	name       string
	runtimeDir string
}

// Option configures Allocate.
type Option func(*allocConfig)

// WithName sets the name shown for the memory in /proc.
func WithName(name string) Option {
	return func(c *allocConfig) {
		c.name = name
	}
}

// WithRuntimeDir sets the directory used when memfd_create is unavailable.
// It defaults to $XDG_RUNTIME_DIR.
func WithRuntimeDir(dir string) Option {
	return func(c *allocConfig) {
		c.runtimeDir = dir
	}
}

// Buffer is a wl_buffer together with the memory it displays.
type Buffer struct {
	proxy  *proxy.Proxy[wl.Buffer]
	data   []byte
	Width  int32
	Height int32
	Stride int32
	busy   bool
}

// Allocate creates a width×height buffer in format. The pool it is carved
// from is destroyed right away; the memory lives as long as the buffer.
func Allocate(s *proxy.Proxy[wl.Shm], width, height int32, format wl.ShmFormat, opts ...Option) (*Buffer, error) {
	cfg := allocConfig{name: "othones-shm", runtimeDir: os.Getenv("XDG_RUNTIME_DIR")}
	for _, opt := range opts {
		opt(&cfg)
	}

	bpp := format.BytesPerPixel()
	if bpp == 0 {
		return nil, fmt.Errorf("shm: unsupported format %#x", uint32(format))
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("shm: invalid size %dx%d", width, height)
	}
	stride := width * bpp
	size := int64(stride) * int64(height)
	if size > 1<<31-1 {
		return nil, fmt.Errorf("shm: %dx%d buffer too large", width, height)
	}

	fd, err := anonymousFile(cfg, size)
	if err != nil {
		return nil, err
	}
	defer unix.Close(fd)

	data, err := unix.Mmap(fd, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("shm: mmap: %w", err)
	}

	pool, err := wl.CreatePool(s, entities.FD(fd), int32(size))
	if err != nil {
		_ = unix.Munmap(data)
		return nil, err
	}
	defer pool.Close()

	wb, err := wl.CreateBuffer(pool, 0, width, height, stride, format)
	if err != nil {
		_ = unix.Munmap(data)
		return nil, err
	}

	b := &Buffer{proxy: wb, data: data, Width: width, Height: height, Stride: stride}
	if err := wb.Listen(func(l *wl.Buffer) {
		l.Release = func(wl.BufferRelease) { b.busy = false }
	}); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

// Proxy returns the wl_buffer.
func (b *Buffer) Proxy() *proxy.Proxy[wl.Buffer] {
	return b.proxy
}

// Bytes returns the mapped memory.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Pixels returns the mapped memory as 32-bit pixels in host byte order.
func (b *Buffer) Pixels() []uint32 {
	if len(b.data) == 0 {
		return nil
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(&b.data[0])), len(b.data)/4)
}

// Busy reports whether the buffer was attached and the compositor has not
// released it yet.
func (b *Buffer) Busy() bool {
	return b.busy
}

// Attach attaches the buffer to s at (0, 0) and marks it busy.
func (b *Buffer) Attach(s *proxy.Proxy[wl.Surface]) error {
	if err := wl.Attach(s, b.proxy, 0, 0); err != nil {
		return err
	}
	b.busy = true
	return nil
}

// Close destroys the buffer and unmaps its memory.
func (b *Buffer) Close() {
	b.proxy.Close()
	if b.data != nil {
		if err := unix.Munmap(b.data); err != nil {
			slog.Warn("shm: munmap failed", "error", err)
		}
		b.data = nil
	}
}

// anonymousFile returns a descriptor of size bytes that no path refers to.
func anonymousFile(cfg allocConfig, size int64) (int, error) {
	fd, err := memfdCreate(cfg.name, unix.MFD_CLOEXEC|unix.MFD_ALLOW_SEALING)
	if err == nil {
		if err := unix.Ftruncate(fd, size); err != nil {
			unix.Close(fd)
			return -1, fmt.Errorf("shm: ftruncate: %w", err)
		}
		_, _ = unix.FcntlInt(uintptr(fd), unix.F_ADD_SEALS, unix.F_SEAL_SHRINK)
		return fd, nil
	}
	slog.Debug("shm: memfd_create unavailable, using runtime dir", "error", err)

	if cfg.runtimeDir == "" {
		return -1, fmt.Errorf("shm: memfd_create failed and XDG_RUNTIME_DIR is not set: %w", err)
	}
	f, err := os.CreateTemp(cfg.runtimeDir, cfg.name+"-*")
	if err != nil {
		return -1, fmt.Errorf("shm: create temp file: %w", err)
	}
	defer f.Close()
	_ = os.Remove(f.Name())
	if err := f.Truncate(size); err != nil {
		return -1, fmt.Errorf("shm: truncate: %w", err)
	}
	fd, err = unix.FcntlInt(f.Fd(), unix.F_DUPFD_CLOEXEC, 0)
	if err != nil {
		return -1, fmt.Errorf("shm: dup: %w", err)
	}
	return fd, nil
}
