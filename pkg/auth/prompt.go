package auth

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"osudl/pkg/logger"
)

// Prompter asks the user for credentials on the terminal
type Prompter struct {
	in     *bufio.Reader
	out    io.Writer
	fd     int
	hidden func(fd int) ([]byte, error)
}

// NewPrompter reads from stdin and writes to stdout. The password is read
// without echo when stdin is a terminal.
func NewPrompter() *Prompter {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		fd = -1
	}
	return &Prompter{
		in:     bufio.NewReader(os.Stdin),
		out:    os.Stdout,
		fd:     fd,
		hidden: term.ReadPassword,
	}
}

// NewPrompterWithIO reads plain lines from in and writes prompts to out
func NewPrompterWithIO(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		in:  bufio.NewReader(in),
		out: out,
		fd:  -1,
	}
}

// Ask prompts for username, password and whether to remember them
func (p *Prompter) Ask() (Credentials, bool, error) {
	username, err := p.readLine("Enter your osu! username: ")
	if err != nil {
		return Credentials{}, false, err
	}

	password, err := p.readPassword("Enter your osu! password: ")
	if err != nil {
		return Credentials{}, false, err
	}

	creds := Credentials{Username: username, Password: password}
	if err := creds.Validate(); err != nil {
		return Credentials{}, false, err
	}

	answer, err := p.readLine("Remember credentials? (y/N): ")
	if err != nil && !errors.Is(err, io.EOF) {
		return Credentials{}, false, err
	}
	remember := strings.HasPrefix(strings.ToLower(answer), "y")

	return creds, remember, nil
}

func (p *Prompter) readLine(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	input, err := p.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || input == "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(input), nil
}

func (p *Prompter) readPassword(prompt string) (string, error) {
	if p.fd < 0 || p.hidden == nil {
		return p.readLine(prompt)
	}

	fmt.Fprint(p.out, prompt)
	password, err := p.hidden(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(string(password)), nil
}

// Resolve returns stored credentials, prompting when none are stored.
// Prompted credentials are saved when the user asks to remember them; a
// failed save is logged and does not stop the run.
func Resolve(m *Manager, p *Prompter, log logger.Logger) (Credentials, error) {
	creds, err := m.Load()
	if err == nil {
		return *creds, nil
	}
	if !errors.Is(err, ErrCredentialsNotFound) {
		return Credentials{}, err
	}

	log.Info("No stored credentials found")
	entered, remember, err := p.Ask()
	if err != nil {
		return Credentials{}, err
	}

	if remember {
		store, err := m.Save(&entered)
		if err != nil {
			log.WithError(err).Error("Failed to save credentials")
		} else {
			log.WithField("store", store).Info("Credentials saved")
		}
	}

	return entered, nil
}
