package memory

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidNumber = errors.New("invalid number")

// ParseSize accepts decimal, 0x hex, 0o octal and 0b binary literals.
// Without a prefix the token is decimal.
func ParseSize(value string) (uint64, error) {
	text := strings.TrimSpace(value)
	base := 10
	if len(text) > 2 && text[0] == '0' {
		switch text[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 10 {
			text = text[2:]
		}
	}
	if text == "" || strings.ContainsAny(text, "+-_") {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, value)
	}
	v, err := strconv.ParseUint(text, base, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, value)
	}
	return v, nil
}

// ParseAddress is ParseSize plus the monitor-style $NNNN hex form.
func ParseAddress(value string) (uint64, error) {
	text := strings.TrimSpace(value)
	if strings.HasPrefix(text, "$") {
		text = "0x" + text[1:]
	}
	addr, err := ParseSize(text)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid address %q", ErrInvalidNumber, value)
	}
	return addr, nil
}
