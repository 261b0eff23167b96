package dialogs

import (
	"log"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"github.com/ispapp/minipy/internal/filestore"
)

// Python source filter shared by the open and save dialogs
var pythonFilter = storage.NewExtensionFileFilter([]string{filestore.DefaultExtension})

// ShowOpenDialog asks for a Python file to open. onChosen only runs when a
// file was picked; a cancelled dialog is a no-op.
func ShowOpenDialog(parent fyne.Window, startDir string, onChosen func(path string)) {
	fileDialog := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, parent)
			return
		}
		if reader == nil {
			return // User cancelled
		}
		path := reader.URI().Path()
		reader.Close()
		onChosen(path)
	}, parent)

	fileDialog.SetFilter(pythonFilter)
	setStartLocation(fileDialog, startDir)
	fileDialog.Resize(fyne.NewSize(720, 520))
	fileDialog.Show()
}

// ShowSaveDialog asks where to save the document. onChosen receives the
// path with a .py extension added when the user typed none; cancelled
// reports a dismissed dialog.
func ShowSaveDialog(parent fyne.Window, startDir, fileName string, onChosen func(path string), cancelled func()) {
	fileDialog := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, parent)
			cancelled()
			return
		}
		if writer == nil {
			cancelled()
			return
		}
		path := writer.URI().Path()
		// The file store replaces the target atomically, the handle is not needed.
		writer.Close()
		target := filestore.EnsureExtension(path, filestore.DefaultExtension)
		if target != path {
			removeIfEmpty(path)
		}
		onChosen(target)
	}, parent)

	fileDialog.SetFilter(pythonFilter)
	fileDialog.SetFileName(fileName)
	setStartLocation(fileDialog, startDir)
	fileDialog.Resize(fyne.NewSize(720, 520))
	fileDialog.Show()
}

// removeIfEmpty drops the empty file the save dialog creates for a name
// that later gains an extension.
func removeIfEmpty(path string) {
	if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() && info.Size() == 0 {
		if err := os.Remove(path); err != nil {
			log.Printf("Failed to remove %s: %v", path, err)
		}
	}
}

func setStartLocation(fileDialog *dialog.FileDialog, dir string) {
	if dir == "" {
		return
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return
	}
	lister, err := storage.ListerForURI(storage.NewFileURI(dir))
	if err != nil {
		log.Printf("Cannot start file dialog in %s: %v", dir, err)
		return
	}
	fileDialog.SetLocation(lister)
}
