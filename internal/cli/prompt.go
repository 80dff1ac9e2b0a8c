package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// prompter reads answers for interactive commands.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

// String asks for a value, returning def when the answer is empty.
func (p *prompter) String(label, def string) string {
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(p.out, "%s: ", label)
	}
	input, _ := p.in.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return def
	}
	return input
}

// Int asks for a positive number. Invalid answers keep def.
func (p *prompter) Int(label string, def int) int {
	input := p.String(label, strconv.Itoa(def))
	if v, err := strconv.Atoi(input); err == nil && v > 0 {
		return v
	}
	fmt.Fprintf(p.out, "  Invalid number, using %d\n", def)
	return def
}

// YesNo asks a yes/no question.
func (p *prompter) YesNo(label string, def bool) bool {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	fmt.Fprintf(p.out, "%s [%s]: ", label, hint)
	input, _ := p.in.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "y", "yes":
		return true
	case "n", "no":
		return false
	default:
		return def
	}
}

// Choice asks for one of options.
func (p *prompter) Choice(label string, options []string, def string) string {
	for {
		answer := p.String(fmt.Sprintf("%s (%s)", label, strings.Join(options, ", ")), def)
		for _, o := range options {
			if strings.EqualFold(answer, o) {
				return o
			}
		}
		fmt.Fprintln(p.out, "Invalid choice, please try again.")
	}
}

// readPassword reads a secret from the terminal without echo.
func readPassword(label string) (string, error) {
	fmt.Fprintf(os.Stderr, "%s: ", label)
	defer fmt.Fprintln(os.Stderr)
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		input, err := bufio.NewReader(os.Stdin).ReadString('\n')
		return strings.TrimSpace(input), err
	}
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(b), nil
}
