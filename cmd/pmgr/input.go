package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// readLine reads one line from stdin. A final line without a newline is
// returned as is.
func (c *cli) readLine() (string, error) {
	line, err := c.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// prompt asks for a line of text. Prompts go to stderr so stdout stays
// parseable with --json.
func (c *cli) prompt(label string) (string, error) {
	fmt.Fprintf(c.errOut, "%s: ", label)
	line, err := c.readLine()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptPassword asks for a secret without echo when stdin is a terminal.
func (c *cli) promptPassword(label string) (string, error) {
	fmt.Fprintf(c.errOut, "%s: ", label)
	if !c.terminal {
		return c.readLine()
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(c.errOut)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

// confirm asks a yes/no question; anything but y or yes declines.
func (c *cli) confirm(question string) (bool, error) {
	answer, err := c.prompt(question + " [y/N]")
	if err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// valueOrPrompt returns v, or prompts for it when empty.
func (c *cli) valueOrPrompt(v, label string, secret bool) (string, error) {
	if v != "" {
		return v, nil
	}
	if secret {
		return c.promptPassword(label)
	}
	return c.prompt(label)
}
