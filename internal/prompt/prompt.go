package prompt

import (
	"errors"

	"github.com/pterm/pterm"
)

// ErrCancelled is returned when the user aborts a prompt. The orchestrator
// treats it as fatal to the whole run.
var ErrCancelled = errors.New("prompt cancelled")

// Prompter is the interactive prompt capability. Every value collection
// step goes through one of these four operations.
type Prompter interface {
	Select(title, text string, options []string) (string, error)
	Text(title, text, defaultValue string) (string, error)
	Secret(title, text string) (string, error)
	Confirm(title, text string) (bool, error)
}

// Terminal renders prompts with pterm.
type Terminal struct{}

// NewTerminal returns the pterm-backed prompter.
func NewTerminal() *Terminal {
	return &Terminal{}
}

func (t *Terminal) Select(title, text string, options []string) (string, error) {
	printTitle(title)
	var cancelled bool
	value, err := pterm.DefaultInteractiveSelect.
		WithOptions(options).
		WithMaxHeight(12).
		WithOnInterruptFunc(func() { cancelled = true }).
		Show(text)
	return checkCancel(value, err, cancelled)
}

func (t *Terminal) Text(title, text, defaultValue string) (string, error) {
	printTitle(title)
	var cancelled bool
	value, err := pterm.DefaultInteractiveTextInput.
		WithDefaultValue(defaultValue).
		WithOnInterruptFunc(func() { cancelled = true }).
		Show(text)
	if value == "" {
		value = defaultValue
	}
	return checkCancel(value, err, cancelled)
}

func (t *Terminal) Secret(title, text string) (string, error) {
	printTitle(title)
	var cancelled bool
	value, err := pterm.DefaultInteractiveTextInput.
		WithMask("*").
		WithOnInterruptFunc(func() { cancelled = true }).
		Show(text)
	return checkCancel(value, err, cancelled)
}

func (t *Terminal) Confirm(title, text string) (bool, error) {
	printTitle(title)
	var cancelled bool
	value, err := pterm.DefaultInteractiveConfirm.
		WithOnInterruptFunc(func() { cancelled = true }).
		Show(text)
	if cancelled {
		return false, ErrCancelled
	}
	if err != nil {
		return false, err
	}
	return value, nil
}

// ShowError renders a blocking error box, used for precondition failures.
func ShowError(message string) {
	pterm.DefaultBox.WithTitle("Error").WithTitleTopCenter().Println(message)
}

// ShowSuccess renders the final confirmation on full success.
func ShowSuccess(message string) {
	pterm.DefaultBox.WithTitle("Installation complete").WithTitleTopCenter().Println(message)
}

func printTitle(title string) {
	if title != "" {
		pterm.DefaultSection.Println(title)
	}
}

func checkCancel(value string, err error, cancelled bool) (string, error) {
	if cancelled {
		return "", ErrCancelled
	}
	if err != nil {
		return "", err
	}
	return value, nil
}
