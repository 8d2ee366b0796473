package cr

import "context"

// Editor captures free text from the user. Edit is given the initial text of
// a scratch buffer and returns the text as the user left it.
type Editor interface {
	Edit(ctx context.Context, initial string) (string, error)
}
