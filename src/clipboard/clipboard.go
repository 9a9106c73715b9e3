package clipboard

import (
	"fmt"
	"os"
	"sync"

	"golang.design/x/clipboard"
)

var writeMu sync.Mutex

func Init() error {
	return clipboard.Init()
}

// WriteText performs a mutex-guarded clipboard write to prevent
// corruption under parallel writes.
func WriteText(text string) error {
	writeMu.Lock()
	defer writeMu.Unlock()
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}

// WriteImageFile copies a PNG file's bytes to the clipboard.
func WriteImageFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read image %q: %w", path, err)
	}
	writeMu.Lock()
	defer writeMu.Unlock()
	clipboard.Write(clipboard.FmtImage, data)
	return nil
}
