package wl

import (
	"github.com/mavrogato/othones/domain/ports"
	"github.com/mavrogato/othones/proxy"
)

// Describe adds every core kind to cat.
func Describe(cat ports.KindCatalog) error {
	for _, describe := range []func(ports.KindCatalog) error{
		proxy.Describe[Display],
		proxy.Describe[Registry],
		proxy.Describe[Callback],
		proxy.Describe[Compositor],
		proxy.Describe[Surface],
		proxy.Describe[Region],
		proxy.Describe[Shm],
		proxy.Describe[ShmPool],
		proxy.Describe[Buffer],
		proxy.Describe[Seat],
		proxy.Describe[Pointer],
		proxy.Describe[Keyboard],
		proxy.Describe[Touch],
		proxy.Describe[Output],
	} {
		if err := describe(cat); err != nil {
			return err
		}
	}
	return nil
}
