package prompt

import "fmt"

// FakePrompter replays scripted answers, recording every prompt it served.
// Selections are answered from Answers by prompt text prefix; the Script
// queue answers Text/Secret prompts in order.
type FakePrompter struct {
	// Answers maps a prompt-text prefix to a fixed answer for Select and
	// Text prompts.
	Answers map[string]string
	// Secrets answers Secret prompts in order.
	Secrets []string
	// Confirms answers Confirm prompts in order. Defaults to true when
	// exhausted.
	Confirms []bool
	// Cancel, when set, cancels any prompt whose text starts with it.
	Cancel string

	// SeenSelects records the option sets presented to Select, keyed by
	// prompt text.
	SeenSelects map[string][]string

	secretIdx  int
	confirmIdx int
}

func (f *FakePrompter) cancelled(text string) bool {
	return f.Cancel != "" && len(text) >= len(f.Cancel) && text[:len(f.Cancel)] == f.Cancel
}

func (f *FakePrompter) answer(text string) (string, bool) {
	for prefix, value := range f.Answers {
		if len(text) >= len(prefix) && text[:len(prefix)] == prefix {
			return value, true
		}
	}
	return "", false
}

func (f *FakePrompter) Select(title, text string, options []string) (string, error) {
	if f.SeenSelects == nil {
		f.SeenSelects = make(map[string][]string)
	}
	f.SeenSelects[text] = options
	if f.cancelled(text) {
		return "", ErrCancelled
	}
	if value, ok := f.answer(text); ok {
		return value, nil
	}
	if len(options) == 0 {
		return "", fmt.Errorf("no options for prompt %q", text)
	}
	return options[0], nil
}

func (f *FakePrompter) Text(title, text, defaultValue string) (string, error) {
	if f.cancelled(text) {
		return "", ErrCancelled
	}
	if value, ok := f.answer(text); ok {
		return value, nil
	}
	return defaultValue, nil
}

func (f *FakePrompter) Secret(title, text string) (string, error) {
	if f.cancelled(text) {
		return "", ErrCancelled
	}
	if f.secretIdx >= len(f.Secrets) {
		return "", fmt.Errorf("no scripted secret for prompt %q", text)
	}
	value := f.Secrets[f.secretIdx]
	f.secretIdx++
	return value, nil
}

func (f *FakePrompter) Confirm(title, text string) (bool, error) {
	if f.cancelled(text) {
		return false, ErrCancelled
	}
	if f.confirmIdx >= len(f.Confirms) {
		return true, nil
	}
	value := f.Confirms[f.confirmIdx]
	f.confirmIdx++
	return value, nil
}
