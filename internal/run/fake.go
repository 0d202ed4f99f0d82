package run

import (
	"context"
	"fmt"
	"strings"
)

// FakeRunner records every invoked command and replays scripted results.
// Shared by the package tests across the pipeline.
type FakeRunner struct {
	// Commands holds each invocation as "name arg1 arg2 ...".
	Commands []string
	// Inputs holds the stdin payloads passed to RunInput, in order.
	Inputs []string
	// Fail maps a command-line prefix to an error returned for any
	// invocation starting with it.
	Fail map[string]error
	// Outputs maps a command-line prefix to scripted stdout.
	Outputs map[string]string
	// Missing lists command names LookPath reports as not found.
	Missing []string
}

func (r *FakeRunner) record(name string, args []string) string {
	line := strings.TrimSpace(name + " " + strings.Join(args, " "))
	r.Commands = append(r.Commands, line)
	return line
}

func (r *FakeRunner) result(line string) error {
	for prefix, err := range r.Fail {
		if strings.HasPrefix(line, prefix) {
			return err
		}
	}
	return nil
}

func (r *FakeRunner) Run(_ context.Context, name string, args ...string) error {
	return r.result(r.record(name, args))
}

func (r *FakeRunner) Output(_ context.Context, name string, args ...string) ([]byte, error) {
	line := r.record(name, args)
	if err := r.result(line); err != nil {
		return nil, err
	}
	for prefix, out := range r.Outputs {
		if strings.HasPrefix(line, prefix) {
			return []byte(out), nil
		}
	}
	return nil, nil
}

func (r *FakeRunner) RunInput(_ context.Context, input, name string, args ...string) error {
	r.Inputs = append(r.Inputs, input)
	return r.result(r.record(name, args))
}

func (r *FakeRunner) RunInteractive(_ context.Context, name string, args ...string) error {
	return r.result(r.record(name, args))
}

func (r *FakeRunner) LookPath(name string) (string, error) {
	for _, missing := range r.Missing {
		if missing == name {
			return "", fmt.Errorf("%s not found in PATH", name)
		}
	}
	return "/usr/bin/" + name, nil
}

// Ran reports whether any recorded command starts with the given prefix.
func (r *FakeRunner) Ran(prefix string) bool {
	for _, line := range r.Commands {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}
