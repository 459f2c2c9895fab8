package buffer

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Load reads a file into the buffer, replacing existing content. A missing
// file yields an empty buffer bound to the path.
func (b *Buffer) Load(filePath string) error {
	b.filePath = filePath
	b.modified = false
	if filePath == "" {
		b.setContent("")
		return nil
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			b.setContent("")
			return nil
		}
		return fmt.Errorf("failed to read file '%s': %w", filePath, err)
	}
	b.setContent(string(data))
	b.version++
	return nil
}

// ReadFile returns the on-disk content of the buffer's file with line
// endings normalized to "\n", for comparison against the buffer.
func (b *Buffer) ReadFile() (string, error) {
	if b.filePath == "" {
		return "", errors.New("buffer has no file path")
	}
	data, err := os.ReadFile(b.filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read file '%s': %w", b.filePath, err)
	}
	return strings.ReplaceAll(string(data), "\r\n", "\n"), nil
}

// Save writes the buffer to filePath (or its bound path when empty).
func (b *Buffer) Save(filePath string) error {
	if filePath == "" {
		filePath = b.filePath
	}
	if filePath == "" {
		return errors.New("no file path specified for saving")
	}
	content := b.String()
	if b.lineEnding != "\n" {
		content = strings.ReplaceAll(content, "\n", b.lineEnding)
	}
	if err := os.WriteFile(filePath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write file '%s': %w", filePath, err)
	}
	b.filePath = filePath
	b.modified = false
	return nil
}
