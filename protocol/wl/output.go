package wl

import (
	"github.com/mavrogato/othones/domain/entities"
	"github.com/mavrogato/othones/proxy"
)

// OutputModeFlag describes an output mode.
type OutputModeFlag uint32

const (
	OutputModeCurrent   OutputModeFlag = 1
	OutputModePreferred OutputModeFlag = 2
)

// OutputGeometry describes the physical placement and properties of the output.
type OutputGeometry struct {
	X              int32
	Y              int32
	PhysicalWidth  int32
	PhysicalHeight int32
	Subpixel       int32
	Make           string
	Model          string
	Transform      int32
}

// OutputMode advertises a video mode. Refresh is in mHz.
type OutputMode struct {
	Flags   OutputModeFlag
	Width   int32
	Height  int32
	Refresh int32
}

// OutputDone marks the end of a batch of output property events.
type OutputDone struct{}

// OutputScale carries the output's integer scale factor.
type OutputScale struct {
	Factor int32
}

// OutputName carries the output's stable name, such as "DP-1".
type OutputName struct {
	Name string
}

// OutputDescription carries a human-readable description of the output.
type OutputDescription struct {
	Description string
}

// Output is a compositor output such as a monitor.
type Output struct {
	Geometry    func(OutputGeometry)
	Mode        func(OutputMode)
	Done        func(OutputDone)
	Scale       func(OutputScale)
	Name        func(OutputName)
	Description func(OutputDescription)
}

var outputDescriptor = &proxy.Descriptor[Output]{
	Interface: entities.Interface{Name: "wl_output", Version: 4},
	Release:   proxy.Forget,
	Events: []proxy.Event[Output]{
		proxy.NewEvent("geometry", func(l *Output) func(OutputGeometry) { return l.Geometry }),
		proxy.NewEvent("mode", func(l *Output) func(OutputMode) { return l.Mode }),
		proxy.NewEvent("done", func(l *Output) func(OutputDone) { return l.Done }),
		proxy.NewEvent("scale", func(l *Output) func(OutputScale) { return l.Scale }),
		proxy.NewEvent("name", func(l *Output) func(OutputName) { return l.Name }),
		proxy.NewEvent("description", func(l *Output) func(OutputDescription) { return l.Description }),
	},
}

func (Output) Descriptor() *proxy.Descriptor[Output] { return outputDescriptor }
