// Package screenshot captures the screen into per-project JPEG files and
// archives old captures by month.
package screenshot

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// ErrNoCaptureCommand is returned when no capture command is configured and
// the platform has no default.
var ErrNoCaptureCommand = errors.New("no screen capture command for this platform")

// Capturer grabs the current screen.
type Capturer interface {
	Capture(ctx context.Context) (image.Image, error)
}

// OutPlaceholder is replaced by the temporary PNG path in a capture command.
const OutPlaceholder = "{out}"

// CommandCapturer runs an external program that writes a PNG screenshot.
type CommandCapturer struct {
	Command []string
}

// DefaultCommand returns the capture command for the current platform, or nil.
func DefaultCommand() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"screencapture", "-x", "-t", "png", OutPlaceholder}
	case "linux", "freebsd", "openbsd":
		return []string{"import", "-window", "root", OutPlaceholder}
	}
	return nil
}

func (c CommandCapturer) Capture(ctx context.Context) (image.Image, error) {
	if len(c.Command) == 0 {
		return nil, ErrNoCaptureCommand
	}
	tmp, err := os.MkdirTemp("", "tasktimer-shot-*")
	if err != nil {
		return nil, fmt.Errorf("create capture dir: %w", err)
	}
	defer os.RemoveAll(tmp)
	out := filepath.Join(tmp, "screen.png")

	args := make([]string, len(c.Command)-1)
	for i, a := range c.Command[1:] {
		args[i] = strings.ReplaceAll(a, OutPlaceholder, out)
	}
	cmd := exec.CommandContext(ctx, c.Command[0], args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("run %s: %w: %s", c.Command[0], err, strings.TrimSpace(string(output)))
	}

	f, err := os.Open(out)
	if err != nil {
		return nil, fmt.Errorf("open capture: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode capture: %w", err)
	}
	return img, nil
}
