// Package prompt implements the bounded continue/cancel question asked by
// the pre-flight guard in interactive runs.
package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

// Prompter asks the operator a yes/no question with a bounded wait.
type Prompter interface {
	// Confirm returns true only when the operator explicitly chose to
	// continue within the timeout. A timeout or cancelled context behaves
	// as if cancel were chosen.
	Confirm(ctx context.Context, question string, timeout time.Duration) bool
}

// ConsolePrompter reads the answer from an input stream, normally stdin.
type ConsolePrompter struct {
	in  io.Reader
	out io.Writer
}

// NewConsolePrompter creates a prompter over the given streams.
func NewConsolePrompter(in io.Reader, out io.Writer) *ConsolePrompter {
	return &ConsolePrompter{in: in, out: out}
}

// Confirm presents the question and waits for y/n up to the timeout.
func (p *ConsolePrompter) Confirm(ctx context.Context, question string, timeout time.Duration) bool {
	fmt.Fprintf(p.out, "%s [y/N] (timeout %s): ", question, timeout)

	answers := make(chan bool, 1)
	go func() {
		reader := bufio.NewReader(p.in)
		line, err := reader.ReadString('\n')
		if err != nil {
			answers <- false
			return
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		answers <- answer == "y" || answer == "yes"
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case ok := <-answers:
		return ok
	case <-timer.C:
		fmt.Fprintln(p.out)
		return false
	case <-ctx.Done():
		return false
	}
}
