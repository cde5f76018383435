package check

import (
	"fmt"
	"io"
	"sync"
)

// Printer serializes writes to a shared output stream. Each call writes one
// complete message burst, so goroutines started by a test body cannot split
// another burst in the middle.
type Printer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewPrinter wraps w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Print writes burst with a single Write call.
func (p *Printer) Print(burst string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = io.WriteString(p.w, burst)
}

// Printf formats and writes a burst.
func (p *Printer) Printf(format string, args ...any) {
	p.Print(fmt.Sprintf(format, args...))
}

// Println writes line followed by a newline.
func (p *Printer) Println(line string) {
	p.Print(line + "\n")
}
