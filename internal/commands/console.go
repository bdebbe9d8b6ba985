package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/term"
)

// Prompter surfaces alerts and asks the user questions.
type Prompter interface {
	Alert(message string)
	Confirm(prompt string) bool
	Ask(prompt string) (string, error)
	AskSecret(prompt string) (string, error)
}

// Console is a Prompter on a terminal. Alerts and prompts go to out;
// answers are read line by line from in.
type Console struct {
	in  *bufio.Reader
	fd  int // terminal input, or -1
	out io.Writer
}

// NewConsole creates a Console.
func NewConsole(in io.Reader, out io.Writer) *Console {
	fd := -1
	if f, ok := in.(interface{ Fd() uintptr }); ok && term.IsTerminal(int(f.Fd())) {
		fd = int(f.Fd())
	}
	return &Console{in: bufio.NewReader(in), fd: fd, out: out}
}

// Alert prints message as an error line.
func (c *Console) Alert(message string) {
	fmt.Fprintf(c.out, "error: %s\n", message)
}

// Confirm asks a yes/no question. Anything but y or yes is a no,
// including end of input.
func (c *Console) Confirm(prompt string) bool {
	fmt.Fprintf(c.out, "%s [y/N] ", prompt)
	line, _ := c.in.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// Ask reads one line of input after printing prompt.
func (c *Console) Ask(prompt string) (string, error) {
	fmt.Fprintf(c.out, "%s: ", prompt)
	line, err := c.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(prompt), err)
	}
	return strings.TrimSpace(line), nil
}

// AskSecret is Ask with echo turned off when input is a terminal.
// Piped input is read as a plain line.
func (c *Console) AskSecret(prompt string) (string, error) {
	if c.fd < 0 || c.in.Buffered() > 0 {
		return c.Ask(prompt)
	}
	fmt.Fprintf(c.out, "%s: ", prompt)
	b, err := term.ReadPassword(c.fd)
	fmt.Fprintln(c.out)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(prompt), err)
	}
	return strings.TrimSpace(string(b)), nil
}

// assumeYes confirms everything without asking.
type assumeYes struct {
	Prompter
}

func (assumeYes) Confirm(string) bool { return true }
