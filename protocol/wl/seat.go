package wl

import (
	"github.com/mavrogato/othones/domain/entities"
	"github.com/mavrogato/othones/proxy"
)

// SeatCapability is a bitmask of input device classes.
type SeatCapability uint32

const (
	SeatCapabilityPointer  SeatCapability = 1
	SeatCapabilityKeyboard SeatCapability = 2
	SeatCapabilityTouch    SeatCapability = 4
)

// Has reports whether all bits of c are set.
func (s SeatCapability) Has(c SeatCapability) bool {
	return s&c == c
}

// wl_seat requests.
const (
	seatGetPointer  = 0
	seatGetKeyboard = 1
	seatGetTouch    = 2
)

// SeatCapabilities announces the seat's device classes.
type SeatCapabilities struct {
	Capabilities SeatCapability
}

// SeatName announces the seat's name.
type SeatName struct {
	Name string
}

// Seat is a group of input devices.
type Seat struct {
	Capabilities func(SeatCapabilities)
	Name         func(SeatName)
}

var seatDescriptor = &proxy.Descriptor[Seat]{
	Interface: entities.Interface{Name: "wl_seat", Version: 7},
	Release:   proxy.Forget,
	Events: []proxy.Event[Seat]{
		proxy.NewEvent("capabilities", func(l *Seat) func(SeatCapabilities) { return l.Capabilities }),
		proxy.NewEvent("name", func(l *Seat) func(SeatName) { return l.Name }),
	},
}

func (Seat) Descriptor() *proxy.Descriptor[Seat] { return seatDescriptor }

// GetPointer creates a pointer object for the seat.
func GetPointer(s *proxy.Proxy[Seat]) (*proxy.Proxy[Pointer], error) {
	return proxy.NewChild[Pointer](s, seatGetPointer)
}

// GetKeyboard creates a keyboard object for the seat.
func GetKeyboard(s *proxy.Proxy[Seat]) (*proxy.Proxy[Keyboard], error) {
	return proxy.NewChild[Keyboard](s, seatGetKeyboard)
}

// GetTouch creates a touch object for the seat.
func GetTouch(s *proxy.Proxy[Seat]) (*proxy.Proxy[Touch], error) {
	return proxy.NewChild[Touch](s, seatGetTouch)
}

// ButtonState is the state of a pointer button.
type ButtonState uint32

const (
	ButtonReleased ButtonState = 0
	ButtonPressed  ButtonState = 1
)

const pointerSetCursor = 0

// PointerEnter reports that the pointer entered a surface.
type PointerEnter struct {
	Serial   uint32
	Surface  entities.ObjectID
	SurfaceX entities.Fixed
	SurfaceY entities.Fixed
}

// PointerLeave reports that the pointer left a surface.
type PointerLeave struct {
	Serial  uint32
	Surface entities.ObjectID
}

// PointerMotion reports pointer movement in surface-local coordinates.
type PointerMotion struct {
	Time     uint32
	SurfaceX entities.Fixed
	SurfaceY entities.Fixed
}

// PointerButton reports a button press or release.
type PointerButton struct {
	Serial uint32
	Time   uint32
	Button uint32
	State  ButtonState
}

// PointerAxis reports scroll motion along one axis.
type PointerAxis struct {
	Time  uint32
	Axis  uint32
	Value entities.Fixed
}

// PointerFrame groups the pointer events sent before it.
type PointerFrame struct{}

// PointerAxisSource names the device that produced the following axis events.
type PointerAxisSource struct {
	AxisSource uint32
}

// PointerAxisStop reports that scrolling on an axis stopped.
type PointerAxisStop struct {
	Time uint32
	Axis uint32
}

// PointerAxisDiscrete reports scroll steps for wheel-like devices.
type PointerAxisDiscrete struct {
	Axis     uint32
	Discrete int32
}

// PointerAxisValue120 reports high-resolution wheel scroll in 1/120 steps.
type PointerAxisValue120 struct {
	Axis     uint32
	Value120 int32
}

// PointerAxisRelativeDirection reports whether scrolling follows or inverts the physical direction.
type PointerAxisRelativeDirection struct {
	Axis      uint32
	Direction uint32
}

// Pointer delivers pointer input for the seat.
type Pointer struct {
	Enter                 func(PointerEnter)
	Leave                 func(PointerLeave)
	Motion                func(PointerMotion)
	Button                func(PointerButton)
	Axis                  func(PointerAxis)
	Frame                 func(PointerFrame)
	AxisSource            func(PointerAxisSource)
	AxisStop              func(PointerAxisStop)
	AxisDiscrete          func(PointerAxisDiscrete)
	AxisValue120          func(PointerAxisValue120)
	AxisRelativeDirection func(PointerAxisRelativeDirection)
}

var pointerDescriptor = &proxy.Descriptor[Pointer]{
	Interface: entities.Interface{Name: "wl_pointer", Version: 7},
	Release:   proxy.Forget,
	Events: []proxy.Event[Pointer]{
		proxy.NewEvent("enter", func(l *Pointer) func(PointerEnter) { return l.Enter }),
		proxy.NewEvent("leave", func(l *Pointer) func(PointerLeave) { return l.Leave }),
		proxy.NewEvent("motion", func(l *Pointer) func(PointerMotion) { return l.Motion }),
		proxy.NewEvent("button", func(l *Pointer) func(PointerButton) { return l.Button }),
		proxy.NewEvent("axis", func(l *Pointer) func(PointerAxis) { return l.Axis }),
		proxy.NewEvent("frame", func(l *Pointer) func(PointerFrame) { return l.Frame }),
		proxy.NewEvent("axis_source", func(l *Pointer) func(PointerAxisSource) { return l.AxisSource }),
		proxy.NewEvent("axis_stop", func(l *Pointer) func(PointerAxisStop) { return l.AxisStop }),
		proxy.NewEvent("axis_discrete", func(l *Pointer) func(PointerAxisDiscrete) { return l.AxisDiscrete }),
		proxy.NewEvent("axis_value120", func(l *Pointer) func(PointerAxisValue120) { return l.AxisValue120 }),
		proxy.NewEvent("axis_relative_direction", func(l *Pointer) func(PointerAxisRelativeDirection) { return l.AxisRelativeDirection }),
	},
}

func (Pointer) Descriptor() *proxy.Descriptor[Pointer] { return pointerDescriptor }

// SetCursor sets the pointer image. A nil surface hides the cursor.
func SetCursor(p *proxy.Proxy[Pointer], serial uint32, s *proxy.Proxy[Surface], hotspotX, hotspotY int32) error {
	return p.Send(pointerSetCursor, entities.Uint(serial), proxy.NullableArg(s), entities.Int(hotspotX), entities.Int(hotspotY))
}

// KeyState is the state of a key.
type KeyState uint32

const (
	KeyReleased KeyState = 0
	KeyPressed  KeyState = 1
)

// KeymapFormat identifies the keymap encoding.
type KeymapFormat uint32

const (
	KeymapNoKeymap KeymapFormat = 0
	KeymapXKBV1    KeymapFormat = 1
)

// KeyboardKeymap hands over the keymap. The listener owns FD and must
// close it.
type KeyboardKeymap struct {
	Format KeymapFormat
	FD     entities.FD
	Size   uint32
}

// KeyboardEnter reports keyboard focus on a surface with the keys already pressed.
type KeyboardEnter struct {
	Serial  uint32
	Surface entities.ObjectID
	Keys    []uint32
}

// KeyboardLeave reports that keyboard focus left a surface.
type KeyboardLeave struct {
	Serial  uint32
	Surface entities.ObjectID
}

// KeyboardKey reports a key press or release. Key is an evdev scancode.
type KeyboardKey struct {
	Serial uint32
	Time   uint32
	Key    uint32
	State  KeyState
}

// KeyboardModifiers carries the modifier and group state.
type KeyboardModifiers struct {
	Serial        uint32
	ModsDepressed uint32
	ModsLatched   uint32
	ModsLocked    uint32
	Group         uint32
}

// KeyboardRepeatInfo carries the key repeat rate and delay.
type KeyboardRepeatInfo struct {
	Rate  int32
	Delay int32
}

// Keyboard delivers keyboard input for the seat.
type Keyboard struct {
	Keymap     func(KeyboardKeymap)
	Enter      func(KeyboardEnter)
	Leave      func(KeyboardLeave)
	Key        func(KeyboardKey)
	Modifiers  func(KeyboardModifiers)
	RepeatInfo func(KeyboardRepeatInfo)
}

var keyboardDescriptor = &proxy.Descriptor[Keyboard]{
	Interface: entities.Interface{Name: "wl_keyboard", Version: 7},
	Release:   proxy.Forget,
	Events: []proxy.Event[Keyboard]{
		proxy.NewEvent("keymap", func(l *Keyboard) func(KeyboardKeymap) { return l.Keymap }),
		proxy.NewEvent("enter", func(l *Keyboard) func(KeyboardEnter) { return l.Enter }),
		proxy.NewEvent("leave", func(l *Keyboard) func(KeyboardLeave) { return l.Leave }),
		proxy.NewEvent("key", func(l *Keyboard) func(KeyboardKey) { return l.Key }),
		proxy.NewEvent("modifiers", func(l *Keyboard) func(KeyboardModifiers) { return l.Modifiers }),
		proxy.NewEvent("repeat_info", func(l *Keyboard) func(KeyboardRepeatInfo) { return l.RepeatInfo }),
	},
}

func (Keyboard) Descriptor() *proxy.Descriptor[Keyboard] { return keyboardDescriptor }

// TouchDown reports a new touch point on a surface.
type TouchDown struct {
	Serial  uint32
	Time    uint32
	Surface entities.ObjectID
	ID      int32
	X       entities.Fixed
	Y       entities.Fixed
}

// TouchUp reports that a touch point was lifted.
type TouchUp struct {
	Serial uint32
	Time   uint32
	ID     int32
}

// TouchMotion reports movement of a touch point.
type TouchMotion struct {
	Time uint32
	ID   int32
	X    entities.Fixed
	Y    entities.Fixed
}

// TouchFrame groups the touch events sent before it.
type TouchFrame struct{}

// TouchCancel reports that the compositor took over the touch sequence.
type TouchCancel struct{}

// TouchShape reports the size of a touch point's contact ellipse.
type TouchShape struct {
	ID    int32
	Major entities.Fixed
	Minor entities.Fixed
}

// TouchOrientation reports the angle of a touch point's contact ellipse.
type TouchOrientation struct {
	ID          int32
	Orientation entities.Fixed
}

// Touch delivers touch input for the seat.
type Touch struct {
	Down        func(TouchDown)
	Up          func(TouchUp)
	Motion      func(TouchMotion)
	Frame       func(TouchFrame)
	Cancel      func(TouchCancel)
	Shape       func(TouchShape)
	Orientation func(TouchOrientation)
}

var touchDescriptor = &proxy.Descriptor[Touch]{
	Interface: entities.Interface{Name: "wl_touch", Version: 7},
	Release:   proxy.Forget,
	Events: []proxy.Event[Touch]{
		proxy.NewEvent("down", func(l *Touch) func(TouchDown) { return l.Down }),
		proxy.NewEvent("up", func(l *Touch) func(TouchUp) { return l.Up }),
		proxy.NewEvent("motion", func(l *Touch) func(TouchMotion) { return l.Motion }),
		proxy.NewEvent("frame", func(l *Touch) func(TouchFrame) { return l.Frame }),
		proxy.NewEvent("cancel", func(l *Touch) func(TouchCancel) { return l.Cancel }),
		proxy.NewEvent("shape", func(l *Touch) func(TouchShape) { return l.Shape }),
		proxy.NewEvent("orientation", func(l *Touch) func(TouchOrientation) { return l.Orientation }),
	},
}

func (Touch) Descriptor() *proxy.Descriptor[Touch] { return touchDescriptor }
