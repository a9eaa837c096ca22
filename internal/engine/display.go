package engine

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Spinner frames using braille characters
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Flusher is an optional interface for writers that support flushing.
type Flusher interface {
	Sync() error
}

// Display handles terminal output during a review run. Concurrent reviewer
// goroutines report through it, so all writes go through one mutex.
type Display struct {
	out      io.Writer
	mu       sync.Mutex
	spinMu   sync.Mutex // Separate mutex for spinner lifecycle
	spinning bool
	spinStop chan struct{}
	spinDone chan struct{}
	spinMsg  string
	spinAt   time.Time
	quiet    bool
}

// NewDisplay creates a display writing to out.
func NewDisplay(out io.Writer) *Display {
	return &Display{out: out}
}

// SetQuiet suppresses informational output (used by --json mode).
func (d *Display) SetQuiet(quiet bool) {
	d.quiet = quiet
}

func (d *Display) flush() {
	if f, ok := d.out.(Flusher); ok {
		f.Sync()
	}
}

// ShowCommandHeader prints the boxed header for a command.
func (d *Display) ShowCommandHeader(command, subject, detail string) {
	if d.quiet {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	line := fmt.Sprintf("%s %s  %s", StyleBold.Render("○ "+command), subject, StyleMuted.Render(detail))
	fmt.Fprintln(d.out, HeaderBox().Render(line))
}

// ShowInfo prints an informational line.
func (d *Display) ShowInfo(format string, args ...any) {
	if d.quiet {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.out, format, args...)
	d.flush()
}

// ShowWarning prints a styled warning line.
func (d *Display) ShowWarning(format string, args ...any) {
	if d.quiet {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.out, "   %s %s\n", StyleWarning.Render("[warn]"), fmt.Sprintf(format, args...))
	d.flush()
}

// ShowError prints a styled error line. Not silenced by quiet mode.
func (d *Display) ShowError(format string, args ...any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.out, "   %s %s\n", StyleError.Render("[!!]"), fmt.Sprintf(format, args...))
	d.flush()
}

// ShowReviewerDone prints one reviewer's completion line with its verdict.
func (d *Display) ShowReviewerDone(name, verdict string, elapsed time.Duration) {
	if d.quiet {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.out, "   %s %s %s %s\n",
		StyleMuted.Render("▶"),
		name,
		VerdictStyle(verdict).Render(verdict),
		StyleMuted.Render(fmt.Sprintf("(%s)", elapsed.Round(time.Second))))
	d.flush()
}

// StartSpinner begins the loading spinner with a message.
func (d *Display) StartSpinner(msg string) {
	if d.quiet {
		return
	}
	d.spinMu.Lock()
	if d.spinning {
		d.spinMu.Unlock()
		return
	}
	d.spinning = true
	d.spinMsg = msg
	d.spinAt = time.Now()
	d.spinStop = make(chan struct{})
	d.spinDone = make(chan struct{})
	d.spinMu.Unlock()

	go func() {
		defer close(d.spinDone)
		frame := 0
		first := true
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-d.spinStop:
				fmt.Fprintf(d.out, "\033[1A\r\033[K")
				d.flush()
				return
			case <-ticker.C:
				elapsed := time.Since(d.spinAt).Round(time.Second)
				if first {
					fmt.Fprintf(d.out, "   %s %s (%s)\n", spinnerFrames[frame], d.spinMsg, elapsed)
					first = false
				} else {
					fmt.Fprintf(d.out, "\033[1A\r\033[K   %s %s (%s)\n", spinnerFrames[frame], d.spinMsg, elapsed)
				}
				d.flush()
				frame = (frame + 1) % len(spinnerFrames)
			}
		}
	}()
}

// StopSpinner stops the loading spinner.
func (d *Display) StopSpinner() {
	d.spinMu.Lock()
	if !d.spinning {
		d.spinMu.Unlock()
		return
	}
	d.spinning = false
	close(d.spinStop)
	d.spinMu.Unlock()
	<-d.spinDone
}

// ShowVerdictLine prints the final overall verdict.
func (d *Display) ShowVerdictLine(verdict string, elapsed time.Duration) {
	d.StopSpinner()
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.out, "\n%s %s %s\n",
		StyleBold.Render("Verdict:"),
		VerdictStyle(verdict).Render(verdict),
		StyleMuted.Render(fmt.Sprintf("in %s", elapsed.Round(time.Second))))
	d.flush()
}
