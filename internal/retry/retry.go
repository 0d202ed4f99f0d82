package retry

import "errors"

// ErrExhausted is returned once every attempt has been rejected.
var ErrExhausted = errors.New("retry budget exhausted")

// ErrRejected signals that an attempt failed validation but the next
// attempt may proceed. Any other error aborts the loop immediately.
var ErrRejected = errors.New("attempt rejected")

// Do runs fn up to limit times. fn returns its value, or ErrRejected to
// consume one attempt, or any other error to abort. After limit rejections
// Do returns the zero value and ErrExhausted.
func Do[T any](limit int, fn func(attempt int) (T, error)) (T, error) {
	var zero T
	for attempt := 1; attempt <= limit; attempt++ {
		value, err := fn(attempt)
		if err == nil {
			return value, nil
		}
		if !errors.Is(err, ErrRejected) {
			return zero, err
		}
	}
	return zero, ErrExhausted
}
