package pins

import (
	"fmt"
	"io"
)

// Action reacts to a confirmed sensor transition. It runs synchronously
// inside DebouncedRead.
type Action func(channel int, value uint)

// ActionSetOutput stages value on out. The output changes on its next
// Trigger.
func ActionSetOutput(out *Output) Action {
	return func(channel int, value uint) {
		out.SetValue(clampByte(value))
	}
}

// ActionPrintValue writes one "pin <channel>: <value>" line to w.
func ActionPrintValue(w io.Writer) Action {
	return func(channel int, value uint) {
		fmt.Fprintf(w, "pin %d: %d\n", channel, value)
	}
}

// Chain returns an Action running each non-nil action in order.
func Chain(actions ...Action) Action {
	var list []Action
	for _, a := range actions {
		if a != nil {
			list = append(list, a)
		}
	}
	switch len(list) {
	case 0:
		return nil
	case 1:
		return list[0]
	}
	return func(channel int, value uint) {
		for _, a := range list {
			a(channel, value)
		}
	}
}
