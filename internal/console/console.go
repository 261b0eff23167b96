package console

import (
	"fmt"
	"io"
	"log"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/fyne-io/terminal"
	"github.com/ispapp/minipy/pkg/kernel"
)

const clearSequence = "\x1b[2J\x1b[3J\x1b[H"

// Console shows the kernel's terminal below the editor. Each attached
// session gets a fresh terminal widget that replaces the previous one in place.
type Console struct {
	holder *fyne.Container

	mu       sync.Mutex
	terminal *terminal.Terminal
	done     chan struct{}
	output   *io.PipeWriter
}

// New creates an empty console showing placeholder text
func New() *Console {
	placeholder := widget.NewLabel("Starting Python kernel...")
	placeholder.Alignment = fyne.TextAlignCenter
	return &Console{holder: container.NewStack(placeholder)}
}

// Content returns the canvas object to place in the window
func (c *Console) Content() fyne.CanvasObject {
	return c.holder
}

// Attach binds a running session to a new terminal widget. Must run on the UI thread.
func (c *Console) Attach(session *kernel.Session, banner string) {
	c.Detach()

	reader, writer := io.Pipe()
	t := terminal.New()
	configChan := make(chan terminal.Config, 1)
	done := make(chan struct{})

	c.mu.Lock()
	c.terminal = t
	c.done = done
	c.output = writer
	c.mu.Unlock()

	c.holder.Objects = []fyne.CanvasObject{t}
	c.holder.Refresh()

	// Kernel output is pumped through our own pipe so Clear and the banner
	// can be interleaved with it.
	go func() {
		if banner != "" {
			fmt.Fprint(writer, banner+"\r\n")
		}
		_, err := io.Copy(writer, session.Output())
		writer.CloseWithError(err)
	}()

	go func() {
		if err := t.RunWithConnection(session.Input(), reader); err != nil {
			log.Printf("Console connection ended: %v", err)
		}
	}()

	go func() {
		rows, cols := uint(0), uint(0)
		for {
			select {
			case <-done:
				return
			case config := <-configChan:
				if rows == config.Rows && cols == config.Columns {
					continue
				}
				rows, cols = config.Rows, config.Columns
				if err := session.Resize(rows, cols); err != nil {
					log.Printf("Failed to resize console: %v", err)
				}
			}
		}
	}()
	t.AddListener(configChan)
}

// ShowMessage replaces the console with a static message, used when no kernel could start
func (c *Console) ShowMessage(message string) {
	c.Detach()
	label := widget.NewLabel(message)
	label.Wrapping = fyne.TextWrapWord
	c.holder.Objects = []fyne.CanvasObject{label}
	c.holder.Refresh()
}

// Detach disconnects the current terminal from its session
func (c *Console) Detach() {
	c.mu.Lock()
	done, output := c.done, c.output
	c.terminal, c.done, c.output = nil, nil, nil
	c.mu.Unlock()

	if done != nil {
		close(done)
	}
	if output != nil {
		output.Close()
	}
}

// Clear wipes the visible console output without touching the kernel
func (c *Console) Clear() error {
	c.mu.Lock()
	output := c.output
	c.mu.Unlock()

	if output == nil {
		return kernel.ErrNotRunning
	}
	// The terminal drains the pipe on its own goroutine and may need the UI
	// thread to do so, so never block the caller on this write.
	go func() {
		if _, err := io.WriteString(output, clearSequence); err != nil {
			log.Printf("Failed to clear console: %v", err)
		}
	}()
	return nil
}

// Focus gives keyboard focus to the terminal and reports whether there was one
func (c *Console) Focus(canvas fyne.Canvas) bool {
	c.mu.Lock()
	t := c.terminal
	c.mu.Unlock()
	if t == nil || canvas == nil {
		return false
	}
	canvas.Focus(t)
	return true
}
