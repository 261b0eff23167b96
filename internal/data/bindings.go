package data

import (
	"log"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/data/binding"
)

// StatusTimeout is how long a status message stays visible
const StatusTimeout = 4 * time.Second

// Global data bindings
var (
	// Status holds the transient message shown in the status bar
	Status binding.String

	// KernelState describes the kernel in the status bar, e.g. "ipython | pid 4242"
	KernelState binding.String

	// Title holds the window title
	Title binding.String

	statusMu    sync.Mutex
	statusTimer *time.Timer
)

// Init creates all global bindings
func Init() {
	Status = binding.NewString()
	KernelState = binding.NewString()
	Title = binding.NewString()
	KernelState.Set("Kernel: starting")
}

// SetStatus shows message in the status bar and clears it after StatusTimeout.
// A newer message restarts the timer.
func SetStatus(message string) {
	log.Printf("Status: %s", message)
	Status.Set(message)

	statusMu.Lock()
	defer statusMu.Unlock()
	if statusTimer != nil {
		statusTimer.Stop()
	}
	statusTimer = time.AfterFunc(StatusTimeout, func() {
		fyne.Do(func() {
			if current, _ := Status.Get(); current == message {
				Status.Set("")
			}
		})
	})
}

// SetKernelState updates the kernel part of the status bar
func SetKernelState(state string) {
	KernelState.Set(state)
}

// WindowTitle formats the title for a document name and modified flag
func WindowTitle(name string, modified bool) string {
	if modified {
		name += "*"
	}
	return name + " - MiniPy"
}

// SetTitle updates the window title binding
func SetTitle(name string, modified bool) {
	Title.Set(WindowTitle(name, modified))
}

// StopTimers cancels a pending status clear, used on shutdown
func StopTimers() {
	statusMu.Lock()
	defer statusMu.Unlock()
	if statusTimer != nil {
		statusTimer.Stop()
		statusTimer = nil
	}
}
