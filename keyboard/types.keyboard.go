package keyboard

import (
	"errors"
	"fmt"

	"pianowarp/perspective"
)

type (
	Point     = perspective.Point
	Rectangle = perspective.Rectangle
)

// KeyClass tells black keys from white keys.
type KeyClass int

const (
	White KeyClass = iota
	Black
)

func (c KeyClass) String() string {
	if c == Black {
		return "black"
	}
	return "white"
}

// Layout is what a renderer needs from a keyboard: one polygon and one
// class per key.
type Layout interface {
	RectangleFor(key int) Rectangle
	ClassOf(key int) KeyClass
	Len() int
}

// Config describes a flat keyboard image. StartKey is the pitch class
// (0 = C) of key index 0.
type Config struct {
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	StartKey int     `json:"start_key"`
	NKeys    int     `json:"n_keys"`
}

// ErrPrecondition marks a caller bug: bad configuration or a key index
// outside the keyboard.
var ErrPrecondition = errors.New("keyboard precondition violated")

// PreconditionError is the panic value for out-of-range keys and the error
// returned for invalid configurations.
type PreconditionError struct {
	Op     string
	Key    int
	NKeys  int
	Detail string
}

func (e *PreconditionError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", ErrPrecondition, e.Op, e.Detail)
	}
	return fmt.Sprintf("%s: %s: key %d outside [0, %d)", ErrPrecondition, e.Op, e.Key, e.NKeys)
}

func (e *PreconditionError) Unwrap() error {
	return ErrPrecondition
}

func checkKey(op string, key, n int) {
	if key < 0 || key >= n {
		panic(&PreconditionError{Op: op, Key: key, NKeys: n})
	}
}
