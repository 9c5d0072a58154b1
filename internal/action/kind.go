package action

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind names one parametric transform.
type Kind string

const (
	KindScroll    Kind = "scroll"
	KindRotate    Kind = "rotate" // 90 degrees clockwise
	KindRotateCCW Kind = "rotate_ccw"
	KindRotate180 Kind = "rotate_180"
	KindMirror    Kind = "mirror"
	KindFlip      Kind = "flip" // alias of mirror
	KindInvert    Kind = "invert"
	KindWipe      Kind = "wipe"
	KindReveal    Kind = "reveal"
	KindBounce    Kind = "bounce"
)

// Kinds lists every supported kind.
var Kinds = []Kind{
	KindScroll, KindRotate, KindRotateCCW, KindRotate180, KindMirror,
	KindFlip, KindInvert, KindWipe, KindReveal, KindBounce,
}

var kindAliases = map[string]Kind{
	"rotate_cw":  KindRotate,
	"rotate_90":  KindRotate,
	"rotate_270": KindRotateCCW,
}

// UnknownKindError reports an action name that matches no kind.
type UnknownKindError struct {
	Name string
}

// Error implements the error interface.
func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("UNKNOWN_ACTION_KIND: %q is not one of %v", e.Name, Kinds)
}

// IsUnknownKind reports whether err wraps an *UnknownKindError.
func IsUnknownKind(err error) bool {
	var uk *UnknownKindError
	return errors.As(err, &uk)
}

// ParseKind resolves an action name, case-insensitively.
func ParseKind(name string) (Kind, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, k := range Kinds {
		if string(k) == n {
			return k, nil
		}
	}
	if k, ok := kindAliases[n]; ok {
		return k, nil
	}
	return "", &UnknownKindError{Name: name}
}

// Rotates reports whether k changes a buffer's width and height.
func (k Kind) Rotates() bool {
	return k == KindRotate || k == KindRotateCCW
}

// Fixed execution order for action queues; lower runs first.
var kindPriority = map[Kind]int{
	KindScroll:    10,
	KindRotate:    20,
	KindRotateCCW: 20,
	KindRotate180: 20,
	KindMirror:    30,
	KindFlip:      30,
	KindBounce:    40,
	KindWipe:      50,
	KindReveal:    60,
	KindInvert:    90,
}

// Priority returns k's position in the fixed execution order.
func (k Kind) Priority() int {
	if p, ok := kindPriority[k]; ok {
		return p
	}
	return 100
}

// SortByPriority orders steps by kind priority. Steps of equal priority keep
// their relative order.
func SortByPriority(steps []Step) {
	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].Kind.Priority() < steps[j].Kind.Priority()
	})
}
