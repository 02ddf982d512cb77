// Package approval implements the raw-mode arrow-key HITL menu used to
// approve or reject a submitted plan (Phase 3 of the turn executor),
// grounded on the teacher's await_choice_selector.go and cli_approver.go.
package approval

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	styleGray  = lipgloss.NewStyle().Faint(true)
	styleGreen = lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E"))
)

// ErrAborted is returned when the user cancels the menu with Ctrl+C.
var ErrAborted = errors.New("approval: prompt aborted")

// Decision is the outcome of a plan review.
type Decision struct {
	Approved bool
	Feedback string
}

// Menu prompts for Accept / Reject-with-feedback over a raw terminal.
type Menu struct {
	in          io.Reader
	out         io.Writer
	interactive bool
}

// NewMenu returns a Menu. Interactivity (whether in/out are real
// terminals) is detected via DetectInteractive.
func NewMenu(in io.Reader, out io.Writer) *Menu {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &Menu{in: in, out: out, interactive: DetectInteractive(in, out)}
}

// DetectInteractive reports whether in and out are both real terminals.
func DetectInteractive(in io.Reader, out io.Writer) bool {
	inFile, inOK := in.(*os.File)
	outFile, outOK := out.(*os.File)
	if !inOK || !outOK {
		return false
	}
	return term.IsTerminal(int(inFile.Fd())) && term.IsTerminal(int(outFile.Fd()))
}

// ReviewPlan shows description and prompts Accept / Reject with feedback.
// When the menu is non-interactive, it returns an approved Decision
// immediately (the caller is expected to have already checked auto-approve
// before calling ReviewPlan in that case).
func (m *Menu) ReviewPlan(description string) (Decision, error) {
	if !m.interactive {
		return Decision{Approved: true}, nil
	}

	inFile := m.in.(*os.File)
	options := []string{"Accept", "Reject with feedback"}

	choice, ok, err := m.selectWithArrowKeys(inFile, options, description)
	if err != nil {
		return Decision{}, err
	}
	if !ok {
		return Decision{}, ErrAborted
	}
	if choice == "Accept" {
		return Decision{Approved: true}, nil
	}

	fmt.Fprint(m.out, "Feedback: ")
	reader := bufio.NewReader(m.in)
	feedback, _ := reader.ReadString('\n')
	return Decision{Approved: false, Feedback: strings.TrimSpace(feedback)}, nil
}

func (m *Menu) selectWithArrowKeys(inFile *os.File, options []string, question string) (string, bool, error) {
	state, err := term.MakeRaw(int(inFile.Fd()))
	if err != nil {
		return "", false, err
	}
	defer func() { _ = term.Restore(int(inFile.Fd()), state) }()

	fmt.Fprintf(m.out, "\n%s\n%s\n", styleGray.Render("Use ↑/↓ and Enter to choose."), question)
	selected := 0
	renderChoiceRows(m.out, options, selected)

	reader := bufio.NewReader(inFile)
	for {
		key, err := readSelectorKey(reader)
		if err != nil {
			return "", false, err
		}
		switch key {
		case keyUp:
			selected = (selected - 1 + len(options)) % len(options)
			fmt.Fprintf(m.out, "\033[%dA", len(options))
			renderChoiceRows(m.out, options, selected)
		case keyDown:
			selected = (selected + 1) % len(options)
			fmt.Fprintf(m.out, "\033[%dA", len(options))
			renderChoiceRows(m.out, options, selected)
		case keyEnter:
			fmt.Fprint(m.out, "\n")
			return options[selected], true, nil
		case keyAbort:
			fmt.Fprint(m.out, "\n")
			return "", false, nil
		}
	}
}

func renderChoiceRows(out io.Writer, options []string, selected int) {
	for i, option := range options {
		if i == selected {
			fmt.Fprintf(out, "\033[2K%s %s\n", styleGreen.Render(">"), styleGreen.Render(option))
			continue
		}
		fmt.Fprintf(out, "\033[2K  %s\n", option)
	}
}

type key uint8

const (
	keyUnknown key = iota
	keyUp
	keyDown
	keyEnter
	keyAbort
)

func readSelectorKey(reader *bufio.Reader) (key, error) {
	b, err := reader.ReadByte()
	if err != nil {
		return keyUnknown, err
	}
	switch b {
	case 3:
		return keyAbort, nil
	case '\r', '\n':
		return keyEnter, nil
	case 'k':
		return keyUp, nil
	case 'j':
		return keyDown, nil
	case 27:
		next, err := reader.ReadByte()
		if err != nil || next != '[' {
			return keyUnknown, nil
		}
		dir, err := reader.ReadByte()
		if err != nil {
			return keyUnknown, nil
		}
		switch dir {
		case 'A':
			return keyUp, nil
		case 'B':
			return keyDown, nil
		default:
			return keyUnknown, nil
		}
	default:
		return keyUnknown, nil
	}
}
