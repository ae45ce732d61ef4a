package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/jrsteele09/go-profile-uploader/upload"
	"github.com/rs/zerolog/log"
)

// lineConfirmer asks a y/N question on a terminal. Anything but y or yes declines.
type lineConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

var _ upload.Confirmer = (*lineConfirmer)(nil)

func newLineConfirmer(in io.Reader, out io.Writer) *lineConfirmer {
	return &lineConfirmer{in: bufio.NewReader(in), out: out}
}

func (c *lineConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	fmt.Fprintf(c.out, "%s [y/N]: ", prompt)

	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		if err == io.EOF {
			return false, nil
		}
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func confirmAll(context.Context, string) (bool, error) {
	return true, nil
}

// terminalNotifier prints successes. Failures come back as the command's
// error so they are only logged here.
type terminalNotifier struct {
	out io.Writer
}

func newTerminalNotifier(out io.Writer) terminalNotifier {
	return terminalNotifier{out: out}
}

func (n terminalNotifier) Success(message string) {
	fmt.Fprintln(n.out, message)
}

func (n terminalNotifier) Failure(message string) {
	log.Debug().Str("message", message).Msg("Request failed")
}

// progressPrinter redraws a single "Uploading... NN%" line
type progressPrinter struct {
	mu      sync.Mutex
	out     io.Writer
	printed bool
}

func newProgressPrinter(out io.Writer) *progressPrinter {
	return &progressPrinter{out: out}
}

func (p *progressPrinter) Print(percent int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "\rUploading... %3d%%", percent)
	p.printed = true
}

// Done ends the progress line if one was started
func (p *progressPrinter) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.printed {
		fmt.Fprintln(p.out)
		p.printed = false
	}
}
