package ui

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/ispapp/minipy/internal/console"
	"github.com/ispapp/minipy/internal/data"
	"github.com/ispapp/minipy/internal/dialogs"
	"github.com/ispapp/minipy/internal/document"
	"github.com/ispapp/minipy/internal/filestore"
	"github.com/ispapp/minipy/internal/guard"
	"github.com/ispapp/minipy/internal/runner"
	"github.com/ispapp/minipy/internal/settings"
	"github.com/ispapp/minipy/pkg/code"
	"github.com/ispapp/minipy/pkg/kernel"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// kernelStartTimeout bounds one Start or Restart including the fallback attempt
const kernelStartTimeout = 30 * time.Second

// MainUI owns the window and everything shown in it
type MainUI struct {
	app    fyne.App
	window fyne.Window

	doc     *document.Document
	store   *filestore.Store
	watcher *filestore.Watcher
	editor  *code.CodeEditor
	console *console.Console
	kernels *kernel.Manager
	runner  *runner.Runner
	guard   *guard.Guard

	shortcuts map[string]func()

	// UI thread only
	closed bool
}

// NewMainUI builds the main window. cfg holds the settings for this run,
// including command line overrides; only settings.Current is ever saved.
func NewMainUI(app fyne.App, cfg *settings.AppSettings) *MainUI {
	// Initialize global data bindings
	data.Init()

	u := &MainUI{
		app:       app,
		window:    app.NewWindow(data.WindowTitle(document.UntitledName, false)),
		doc:       document.New(),
		store:     filestore.New(),
		console:   console.New(),
		shortcuts: make(map[string]func()),
	}

	kernelConfig := kernel.DefaultConfig(cfg.Python, cfg.KernelArgs)
	kernelConfig.StartupGrace = cfg.GetStartupGrace()
	u.kernels = kernel.NewManager(kernelConfig)

	u.runner = runner.New(u.doc, u.store, u.kernels, runner.Options{CleanupDelay: cfg.GetCleanupDelay()})
	u.guard = guard.New(u.doc, dialogs.NewUnsavedPrompt(u.window), u.saveFile)

	watcher, err := filestore.NewWatcher(u.store, u.onExternalChange)
	if err != nil {
		log.Printf("External change detection disabled: %v", err)
	}
	u.watcher = watcher

	u.editor = code.NewCodeEditor("python")
	u.editor.SetTabSize(cfg.TabSize)
	u.editor.SetOnTextChanged(u.doc.Edit)
	u.editor.SetShortcutHandler(u.handleShortcut)

	u.doc.SetOnChange(func() {
		data.SetTitle(u.doc.Name(), u.doc.Modified())
	})
	data.Title.AddListener(binding.NewDataListener(func() {
		if title, err := data.Title.Get(); err == nil && title != "" {
			u.window.SetTitle(title)
		}
	}))

	u.buildLayout()
	u.registerShortcuts()

	u.window.Resize(fyne.NewSize(float32(cfg.WindowWidth), float32(cfg.WindowHeight)))
	u.window.SetCloseIntercept(func() {
		u.guard.Confirm(u.shutdown)
	})

	return u
}

// Window returns the main window
func (u *MainUI) Window() fyne.Window {
	return u.window
}

// Start launches the kernel and opens path if one was given
func (u *MainUI) Start(path string) {
	if path != "" {
		u.loadFile(path)
	}
	u.window.Canvas().Focus(u.editor.FocusTarget())
	u.startKernel(false)
}

func (u *MainUI) buildLayout() {
	toolbar := container.NewHBox(
		widget.NewButtonWithIcon("Open", theme.FolderOpenIcon(), u.openFile),
		widget.NewButtonWithIcon("Save", theme.DocumentSaveIcon(), func() { u.saveFile(nil) }),
		&widget.Button{Text: "Run ▶", Icon: theme.MediaPlayIcon(), Importance: widget.HighImportance, OnTapped: u.runCurrent},
		widget.NewSeparator(),
		widget.NewButtonWithIcon("Clear REPL", theme.ContentClearIcon(), u.clearConsole),
		widget.NewButtonWithIcon("Restart Kernel", theme.ViewRefreshIcon(), u.restartKernel),
		layout.NewSpacer(),
		widget.NewButtonWithIcon("Exit", theme.LogoutIcon(), u.exit),
	)

	status := widget.NewLabelWithData(data.Status)
	kernelState := widget.NewLabelWithData(data.KernelState)
	statusBar := container.NewHBox(status, layout.NewSpacer(), kernelState)

	split := container.NewVSplit(u.editor, u.console.Content())
	split.SetOffset(0.6)

	u.window.SetContent(container.NewBorder(toolbar, statusBar, nil, nil, split))
}

func (u *MainUI) registerShortcuts() {
	bindings := []struct {
		key    fyne.KeyName
		action func()
	}{
		{fyne.KeyO, u.openFile},
		{fyne.KeyS, func() { u.saveFile(nil) }},
		{fyne.KeyR, u.runCurrent},
		{fyne.KeyL, u.clearConsole},
		{fyne.KeyK, u.restartKernel},
		{fyne.KeyN, u.newFile},
		{fyne.KeyQ, u.exit},
		{fyne.KeyJ, u.focusConsole},
	}

	for _, b := range bindings {
		shortcut := &desktop.CustomShortcut{KeyName: b.key, Modifier: fyne.KeyModifierShortcutDefault}
		action := b.action
		u.shortcuts[shortcut.ShortcutName()] = action
		u.window.Canvas().AddShortcut(shortcut, func(fyne.Shortcut) { action() })
	}
}

// handleShortcut runs window shortcuts typed while the editor has focus
func (u *MainUI) handleShortcut(shortcut fyne.Shortcut) bool {
	action, ok := u.shortcuts[shortcut.ShortcutName()]
	if !ok {
		return false
	}
	action()
	return true
}

// startDir picks where file dialogs open
func (u *MainUI) startDir() string {
	if dir := u.doc.Dir(); dir != "" {
		return dir
	}
	if settings.Current != nil && settings.Current.LastDirectory != "" {
		return settings.Current.LastDirectory
	}
	cwd, _ := os.Getwd()
	return cwd
}

func (u *MainUI) openFile() {
	u.guard.Confirm(func() {
		dialogs.ShowOpenDialog(u.window, u.startDir(), u.loadFile)
	})
}

func (u *MainUI) newFile() {
	u.guard.Confirm(func() {
		u.forgetCurrent()
		u.doc.Reset()
		u.editor.SetText("")
		u.watch("")
		data.SetStatus("New file")
	})
}

// loadFile replaces the document with path. On failure the document is left untouched.
func (u *MainUI) loadFile(path string) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	text, lossy, err := u.store.Open(path)
	if err != nil {
		log.Printf("Open failed: %v", err)
		dialogs.ShowError("Could not open file", err, u.window)
		return
	}

	u.forgetCurrent()
	u.doc.Load(path, text)
	u.editor.SetText(text)
	u.watch(path)
	settings.Current.RememberDirectory(filepath.Dir(path))
	data.SetStatus("Opened: " + path)

	if lossy {
		dialogs.ShowWarning("Encoding",
			fmt.Sprintf("%s is not valid UTF-8. Undecodable bytes were replaced with �.", filepath.Base(path)),
			u.window)
	}
}

// saveFile saves to the document path, asking for one first when needed.
// done, if set, learns whether the document ended up on disk.
func (u *MainUI) saveFile(done func(saved bool)) {
	if done == nil {
		done = func(bool) {}
	}

	if u.doc.HasPath() {
		done(u.writeTo(u.doc.Path()))
		return
	}

	dialogs.ShowSaveDialog(u.window, u.startDir(), u.doc.Name(),
		func(path string) { done(u.writeTo(path)) },
		func() { done(false) })
}

func (u *MainUI) writeTo(path string) bool {
	previous := u.doc.Path()
	if err := u.store.Save(path, u.doc.Text()); err != nil {
		log.Printf("Save failed: %v", err)
		dialogs.ShowError("Could not save file", err, u.window)
		return false
	}

	if previous != path {
		u.forgetCurrent()
	}
	u.doc.MarkSaved(path)
	u.watch(path)
	settings.Current.RememberDirectory(filepath.Dir(path))
	data.SetStatus("Saved: " + path)
	return true
}

func (u *MainUI) runCurrent() {
	result, err := u.runner.RunCurrent()
	if err != nil {
		log.Printf("Run failed: %v", err)
		if errors.Is(err, kernel.ErrNotRunning) {
			data.SetStatus("Kernel is not running. Use Restart Kernel first.")
		}
		dialogs.ShowError("Could not run script", err, u.window)
		return
	}

	if result.Temporary {
		log.Printf("Ran unsaved buffer from %s", result.Path)
	}
	data.SetStatus("Ran current script via %run -i")
}

// focusConsole moves keyboard focus to the console; clicking the editor moves it back
func (u *MainUI) focusConsole() {
	if !u.console.Focus(u.window.Canvas()) {
		data.SetStatus("No console to focus: the kernel is not running")
	}
}

func (u *MainUI) clearConsole() {
	if err := u.console.Clear(); err != nil {
		data.SetStatus("Nothing to clear: " + err.Error())
		return
	}
	data.SetStatus("Console cleared")
}

func (u *MainUI) restartKernel() {
	u.startKernel(true)
}

// startKernel launches off the UI thread and attaches the console when done
func (u *MainUI) startKernel(restart bool) {
	if u.kernels.Starting() {
		data.SetStatus("Kernel is already starting")
		return
	}
	data.SetKernelState("Kernel: starting")
	if restart {
		u.console.ShowMessage("Restarting Python kernel...")
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), kernelStartTimeout)
		defer cancel()

		var session *kernel.Session
		var err error
		if restart {
			session, err = u.kernels.Restart(ctx)
		} else {
			session, err = u.kernels.Start(ctx)
		}

		fyne.Do(func() {
			if u.closed {
				u.kernels.Shutdown()
				return
			}
			if errors.Is(err, kernel.ErrStarting) {
				data.SetStatus("Kernel is already starting")
				return
			}
			if err != nil {
				u.kernelFailed(err)
				return
			}
			u.kernelStarted(session, restart)
		})
	}()
}

func (u *MainUI) kernelStarted(session *kernel.Session, restart bool) {
	u.console.Attach(session, fmt.Sprintf("MiniPy | %s | Type ? for help", session.Name()))
	data.SetKernelState(fmt.Sprintf("Kernel: %s | pid %d", session.Name(), session.PID()))
	if restart {
		data.SetStatus("Kernel restarted")
	}

	go func() {
		<-session.Done()
		// A restart or shutdown replaced the session on purpose.
		if u.kernels.Current() != session {
			return
		}
		fyne.Do(func() {
			if u.closed {
				return
			}
			log.Printf("Kernel exited: %v", session.ExitErr())
			data.SetKernelState("Kernel: exited")
			data.SetStatus("Kernel exited. Use Restart Kernel to start a new one.")
		})
	}()
}

func (u *MainUI) kernelFailed(err error) {
	log.Printf("Kernel unavailable: %v", err)
	data.SetKernelState("Kernel: not running")
	u.console.ShowMessage("Python kernel is not available.\n\n" + err.Error() +
		"\n\nInstall IPython (pip install ipython) and use Restart Kernel.")
	dialogs.ShowError("Could not start the Python kernel", err, u.window)
}

// onExternalChange runs on the watcher goroutine
func (u *MainUI) onExternalChange(path string) {
	fyne.Do(func() {
		if u.closed || path != u.doc.Path() {
			return
		}
		data.SetStatus(fmt.Sprintf("%s was changed on disk by another program", filepath.Base(path)))
	})
}

func (u *MainUI) watch(path string) {
	if u.watcher == nil {
		return
	}
	if err := u.watcher.Watch(path); err != nil {
		log.Printf("Not watching %s: %v", path, err)
	}
}

func (u *MainUI) forgetCurrent() {
	if path := u.doc.Path(); path != "" {
		u.store.Forget(path)
	}
}

func (u *MainUI) exit() {
	u.guard.Confirm(func() {
		u.shutdown()
		u.app.Quit()
	})
}

// shutdown tears everything down and closes the window. It never fails.
func (u *MainUI) shutdown() {
	if u.closed {
		return
	}
	u.closed = true

	size := u.window.Canvas().Size()
	guard.Teardown(
		guard.Step{Name: "scratch files", Run: func() error {
			u.runner.Flush()
			return nil
		}},
		guard.Step{Name: "kernel", Run: func() error {
			u.console.Detach()
			u.kernels.Shutdown()
			return nil
		}},
		guard.Step{Name: "file watcher", Run: func() error {
			if u.watcher == nil {
				return nil
			}
			return u.watcher.Close()
		}},
		guard.Step{Name: "settings", Run: func() error {
			settings.Current.RememberWindowSize(size.Width, size.Height)
			return settings.Save()
		}},
		guard.Step{Name: "status timers", Run: func() error {
			data.StopTimers()
			return nil
		}},
	)

	u.window.Close()
}
