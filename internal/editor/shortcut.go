package editor

import (
	"context"
	"strings"
)

type Action int

const (
	NoAction Action = iota
	FormatAction
	SaveAction
)

type binding struct {
	action  Action
	command Command
}

// Shortcuts bound to the primary modifier (ctrl or cmd).
var shortcuts = map[string]binding{
	"b": {action: FormatAction, command: Bold},
	"i": {action: FormatAction, command: Italic},
	"s": {action: SaveAction},
}

// Lookup returns the action bound to primary+key.
func Lookup(primary bool, key string) (Action, Command) {
	if !primary {
		return NoAction, 0
	}
	b, ok := shortcuts[strings.ToLower(key)]
	if !ok {
		return NoAction, 0
	}
	return b.action, b.command
}

// HandleKey dispatches a key press. It reports whether the key was bound.
// Save is only attempted when the document is valid; otherwise the key is
// swallowed without saving.
func (s *Session) HandleKey(ctx context.Context, primary bool, key string) (bool, error) {
	action, cmd := Lookup(primary, key)
	switch action {
	case FormatAction:
		s.Apply(cmd)
		return true, nil
	case SaveAction:
		if !Valid(s.Document()) {
			return true, nil
		}
		_, err := s.Save(ctx)
		return true, err
	default:
		return false, nil
	}
}
