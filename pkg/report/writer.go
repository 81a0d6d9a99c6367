// Package report persists monitoring artifacts (pod log tails and
// resource analysis reports) as files under a configurable directory.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const fileTimestampLayout = "20060102_150405"

// Writer places artifact files under a root directory.
type Writer struct {
	root string
	now  func() time.Time
}

// NewWriter creates a writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{
		root: dir,
		now:  time.Now,
	}
}

// WritePodLogs saves a container's log tail under
// <root>/pods/<pod>/<container>_<timestamp>.log and returns the path.
func (w *Writer) WritePodLogs(pod, container, logs string) (string, error) {
	dir := filepath.Join(w.root, "pods", pod)
	name := fmt.Sprintf("%s_%s.log", container, w.now().Format(fileTimestampLayout))
	return w.write(dir, name, logs)
}

// WriteAnalysis saves an analysis report under
// <root>/analysis/<pod>_<container>_<timestamp>.log and returns the path.
func (w *Writer) WriteAnalysis(pod, container, body string) (string, error) {
	dir := filepath.Join(w.root, "analysis")
	name := fmt.Sprintf("%s_%s_%s.log", pod, container, w.now().Format(fileTimestampLayout))
	return w.write(dir, name, body)
}

func (w *Writer) write(dir, name, content string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	return path, nil
}
