// Package cli holds small interactive helpers for the command line.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Prompter asks questions on Out and reads answers from In.
type Prompter struct {
	In  io.Reader
	Out io.Writer
}

// SelectOption represents an option in a selection list.
type SelectOption struct {
	Value string // The value to return if selected
	Label string // The display label
}

// Select displays a numbered list and asks the user to select an option.
// Returns the selected option's Value, or empty string if cancelled.
// With allowOther set, any non-numeric answer is returned as typed.
func (p *Prompter) Select(prompt string, options []SelectOption, allowOther bool) (string, error) {
	if len(options) == 0 && !allowOther {
		return "", fmt.Errorf("no options provided")
	}

	fmt.Fprintln(p.Out, prompt)
	fmt.Fprintln(p.Out)

	for i, opt := range options {
		fmt.Fprintf(p.Out, "  %d) %s\n", i+1, opt.Label)
	}

	fmt.Fprintln(p.Out)
	if allowOther {
		fmt.Fprint(p.Out, "Enter number or value (or 'q' to cancel): ")
	} else {
		fmt.Fprint(p.Out, "Enter number (or 'q' to cancel): ")
	}

	response, err := p.readLine()
	if err != nil {
		return "", err
	}

	switch strings.ToLower(response) {
	case "", "q", "quit", "cancel":
		return "", nil
	}

	num, err := strconv.Atoi(response)
	if err != nil {
		if allowOther {
			return response, nil
		}
		return "", fmt.Errorf("invalid selection: %s", response)
	}
	if num < 1 || num > len(options) {
		return "", fmt.Errorf("invalid selection: %s", response)
	}

	return options[num-1].Value, nil
}

func (p *Prompter) readLine() (string, error) {
	reader := bufio.NewReader(p.In)
	response, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("reading response: %w", err)
	}
	return strings.TrimSpace(response), nil
}
