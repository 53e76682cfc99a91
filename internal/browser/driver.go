// Package browser relays a shared remote-browser session to room members:
// input and navigation flow in, screencast frames flow out.
package browser

import "context"

// Input event kinds accepted by DispatchInput. Anything else is ignored.
const (
	InputMouseMove = "mousemove"
	InputMouseDown = "mousedown"
	InputMouseUp   = "mouseup"
	InputClick     = "click"
	InputKeyDown   = "keydown"
	InputKeyUp     = "keyup"
	InputKeyPress  = "keypress"
	InputScroll    = "scroll"
)

type InputEvent struct {
	Type   string
	X      float64
	Y      float64
	Key    string
	Text   string
	DeltaY float64
}

type FrameFunc func(data []byte)

// Driver is the browser-automation capability the proxy consumes. Launch is
// called at most once per driver; StartScreencast is called once after a
// successful launch and pushes frames until Close.
type Driver interface {
	Launch(ctx context.Context) error
	Navigate(ctx context.Context, url string) error
	DispatchInput(ctx context.Context, event InputEvent) error
	StartScreencast(ctx context.Context, onFrame FrameFunc) error
	Close() error
}
