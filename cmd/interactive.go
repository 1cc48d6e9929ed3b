package main

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	acceptor "github.com/ft-irc/irc-acceptor"
)

// prompter reads line-oriented answers with per-question defaults.
type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

// ask prints the prompt with its default and returns the trimmed answer,
// falling back to the default on an empty line or EOF.
func (p *prompter) ask(prompt, def string) string {
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", prompt, def)
	} else {
		fmt.Fprintf(p.out, "%s: ", prompt)
	}
	if !p.in.Scan() {
		return def
	}
	val := strings.TrimSpace(p.in.Text())
	if val == "" {
		return def
	}
	return val
}

func (p *prompter) askBool(prompt string) bool {
	return strings.HasPrefix(strings.ToLower(p.ask(prompt+" (y/N)", "N")), "y")
}

// promptOptions collects session settings interactively. Nonsense answers
// degrade to defaults rather than failing, so a run of enter keys always
// yields a usable configuration.
func promptOptions(in io.Reader, out io.Writer) (acceptor.Options, error) {
	p := &prompter{in: bufio.NewScanner(in), out: out}
	fmt.Fprintf(out, "\n== IRC Acceptance Tester (interactive) ==\n\n")

	opts := acceptor.Options{
		Binary:    p.ask("Path to your compiled server binary", "./ircserv"),
		Password:  p.ask("Server password (PASS)", "pass"),
		Tester:    p.ask("Choose tester (v1 or v2)", "v2"),
		TesterDir: ".",
		Python:    "python3",
		Timeout:   15 * time.Second,
	}
	if opts.Tester != "v1" && opts.Tester != "v2" {
		opts.Tester = "v2"
	}

	opts.Valgrind = p.askBool("Run under valgrind?")
	opts.OutDir = p.ask("Output directory for logs", filepath.Join("runs", time.Now().Format("20060102_150405")))
	opts.Verbose = p.askBool("Verbose tester output?")

	if port := p.ask("Port (enter for auto)", ""); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil {
			return acceptor.Options{}, fmt.Errorf("invalid port %q: %w", port, err)
		}
		opts.Port = n
	}

	return opts, nil
}
