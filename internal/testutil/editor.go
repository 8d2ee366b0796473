package testutil

import "context"

// StubEditor returns canned text instead of running an editor.
type StubEditor struct {
	Text  string
	Err   error
	Calls int

	// Initial is the scratch text passed to the last Edit call.
	Initial string
}

func (e *StubEditor) Edit(_ context.Context, initial string) (string, error) {
	e.Calls++
	e.Initial = initial
	if e.Err != nil {
		return "", e.Err
	}
	return e.Text, nil
}
