package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/slok/magnetctl/internal/collect"
	"github.com/slok/magnetctl/internal/log"
)

// TerminalConfirmerConfig is the configuration for the terminal confirmer.
type TerminalConfirmerConfig struct {
	In     io.Reader
	Out    io.Writer
	Logger log.Logger
}

func (c *TerminalConfirmerConfig) defaults() error {
	if c.In == nil {
		return fmt.Errorf("input reader is required")
	}
	if c.Out == nil {
		return fmt.Errorf("output writer is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "prompt.TerminalConfirmer"})
	return nil
}

type line struct {
	text string
	err  error
}

// TerminalConfirmer asks yes/no questions on a terminal.
type TerminalConfirmer struct {
	in     *bufio.Reader
	out    io.Writer
	logger log.Logger

	start sync.Once
	lines chan line
}

// NewTerminalConfirmer returns a new terminal confirmer.
func NewTerminalConfirmer(cfg TerminalConfirmerConfig) (*TerminalConfirmer, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &TerminalConfirmer{
		in:     bufio.NewReader(cfg.In),
		out:    cfg.Out,
		logger: cfg.Logger,
		lines:  make(chan line),
	}, nil
}

var _ collect.Confirmer = &TerminalConfirmer{}

// Confirm prints the prompt and waits for an answer. Only "y" and "yes" accept,
// an empty answer rejects.
func (t *TerminalConfirmer) Confirm(ctx context.Context, p collect.Prompt) (bool, error) {
	// Reads can't be interrupted, a single reader goroutine feeds every prompt so
	// an abandoned prompt doesn't lose the next answer.
	t.start.Do(func() { go t.readLines() })

	confirm := p.ConfirmText
	if confirm == "" {
		confirm = "Confirm"
	}
	fmt.Fprintf(t.out, "\n[%s] %s\n%s\n%s? [y/N]: ", strings.ToUpper(string(p.Severity)), p.Title, p.Message, confirm)

	select {
	case <-ctx.Done():
		fmt.Fprintln(t.out)
		return false, ctx.Err()
	case l, ok := <-t.lines:
		if !ok {
			return false, fmt.Errorf("could not read answer: %w", io.EOF)
		}
		if l.err != nil {
			return false, fmt.Errorf("could not read answer: %w", l.err)
		}

		answer := strings.ToLower(strings.TrimSpace(l.text))
		t.logger.Debugf("Prompt %q answered %q", p.Title, answer)
		return answer == "y" || answer == "yes", nil
	}
}

func (t *TerminalConfirmer) readLines() {
	defer close(t.lines)
	for {
		text, err := t.in.ReadString('\n')
		if err != nil && (err != io.EOF || text == "") {
			t.lines <- line{err: err}
			return
		}
		t.lines <- line{text: text}
		if err != nil {
			return
		}
	}
}
