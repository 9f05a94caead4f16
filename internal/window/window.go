// Package window hosts the renderer in a GLFW window. Frames arrive as
// images and are uploaded to a texture that is blitted to the default
// framebuffer. Keyboard, mouse and focus events feed an input.State.
package window

import (
	"fmt"
	"image"
	"runtime"

	"github.com/go-gl/gl/v2.1/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"lightfield-renderer/internal/input"
	"lightfield-renderer/internal/log"
)

var logger = log.New("window")

func init() {
	// GLFW and the GL context must stay on the main thread.
	runtime.LockOSThread()
}

var keyMap = map[glfw.Key]input.Key{
	glfw.KeyW:            input.KeyW,
	glfw.KeyA:            input.KeyA,
	glfw.KeyS:            input.KeyS,
	glfw.KeyD:            input.KeyD,
	glfw.KeyQ:            input.KeyQ,
	glfw.KeyE:            input.KeyE,
	glfw.KeyLeftShift:    input.KeyShift,
	glfw.KeyRightShift:   input.KeyShift,
	glfw.KeyLeftControl:  input.KeyControl,
	glfw.KeyRightControl: input.KeyControl,
	glfw.KeyTab:          input.KeyTab,
	glfw.KeyEscape:       input.KeyEscape,
	glfw.KeyF1:           input.KeyF1,
	glfw.KeyF2:           input.KeyF2,
	glfw.KeyF3:           input.KeyF3,
	glfw.KeyF12:          input.KeyF12,
}

var buttonMap = map[glfw.MouseButton]input.Button{
	glfw.MouseButtonLeft:   input.ButtonLeft,
	glfw.MouseButtonRight:  input.ButtonRight,
	glfw.MouseButtonMiddle: input.ButtonMiddle,
}

// Window is a fixed-size window presenting RGBA frames.
type Window struct {
	win    *glfw.Window
	width  int
	height int
	state  *input.State

	fbTexture uint32
	texFbo    uint32
	interval  int

	lastX, lastY float64
	haveCursor   bool
}

// Open creates a non-resizable window with a GL 2.1 context and routes its
// events to state.
func Open(title string, width, height int, state *input.State) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("window: failed to initialize glfw: %w", err)
	}

	glfw.WindowHint(glfw.Resizable, glfw.False)
	glfw.WindowHint(glfw.ContextVersionMajor, 2)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	win, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("window: could not create opengl window: %w", err)
	}
	win.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		win.Destroy()
		glfw.Terminate()
		return nil, fmt.Errorf("window: could not init opengl: %w", err)
	}
	logger.Infof("opengl %s", gl.GoStr(gl.GetString(gl.VERSION)))

	w := &Window{win: win, width: width, height: height, state: state, interval: -1}

	// Setup texture for image data
	gl.GenTextures(1, &w.fbTexture)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, w.fbTexture)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(width), int32(height), 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)

	// Attach texture to FBO
	gl.GenFramebuffers(1, &w.texFbo)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, w.texFbo)
	gl.FramebufferTexture2D(gl.READ_FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, w.fbTexture, 0)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)

	// Bind event callbacks
	win.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	win.SetKeyCallback(w.onKeyEvent)
	win.SetMouseButtonCallback(w.onMouseEvent)
	win.SetCursorPosCallback(w.onCursorPosEvent)
	win.SetScrollCallback(w.onScrollEvent)
	win.SetFocusCallback(w.onFocusEvent)

	return w, nil
}

// Present uploads img and swaps buffers. With vsync the swap waits for the
// vertical blank.
func (w *Window) Present(img *image.NRGBA, vsync bool) error {
	b := img.Bounds()
	if b.Dx() != w.width || b.Dy() != w.height {
		return fmt.Errorf("window: frame %dx%d, window %dx%d", b.Dx(), b.Dy(), w.width, w.height)
	}
	interval := 0
	if vsync {
		interval = 1
	}
	if interval != w.interval {
		glfw.SwapInterval(interval)
		w.interval = interval
	}

	gl.BindTexture(gl.TEXTURE_2D, w.fbTexture)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, int32(w.width), int32(w.height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))

	// Image rows run top-down, GL rows bottom-up: flip while blitting.
	fw, fh := w.win.GetFramebufferSize()
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, w.texFbo)
	gl.BlitFramebuffer(0, 0, int32(w.width), int32(w.height), 0, int32(fh), int32(fw), 0, gl.COLOR_BUFFER_BIT, gl.NEAREST)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)

	w.win.SwapBuffers()
	return nil
}

// PollEvents processes pending window events into the input state.
func (w *Window) PollEvents() {
	glfw.PollEvents()
}

func (w *Window) ShouldClose() bool { return w.win.ShouldClose() }

func (w *Window) SetTitle(title string) { w.win.SetTitle(title) }

func (w *Window) Close() {
	gl.DeleteFramebuffers(1, &w.texFbo)
	gl.DeleteTextures(1, &w.fbTexture)
	w.win.Destroy()
	glfw.Terminate()
}

func (w *Window) onKeyEvent(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
	k, ok := keyMap[key]
	if !ok {
		return
	}
	switch action {
	case glfw.Press:
		w.state.Keyboard.Press(k)
	case glfw.Release:
		w.state.Keyboard.Release(k)
	}
}

func (w *Window) onMouseEvent(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
	b, ok := buttonMap[button]
	if !ok {
		return
	}
	if action == glfw.Press {
		w.state.Mouse.Press(b)
	} else {
		w.state.Mouse.Release(b)
	}
}

// The cursor is disabled, so positions are unbounded and only the motion
// between events matters.
func (w *Window) onCursorPosEvent(_ *glfw.Window, xPos, yPos float64) {
	if w.haveCursor {
		w.state.Mouse.Move(xPos-w.lastX, yPos-w.lastY)
	}
	w.lastX, w.lastY = xPos, yPos
	w.haveCursor = true
}

func (w *Window) onScrollEvent(_ *glfw.Window, _, yOff float64) {
	w.state.Mouse.Scroll(yOff)
}

func (w *Window) onFocusEvent(_ *glfw.Window, focused bool) {
	if !focused {
		w.state.FlushAll()
		w.haveCursor = false
	}
}
