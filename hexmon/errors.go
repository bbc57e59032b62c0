package hexmon

import (
	"fmt"
)

// ArityError reports a command invoked with the wrong number of arguments.
type ArityError struct {
	Command string
	Want    int
	Got     int
}

func (e ArityError) Error() string {
	return fmt.Sprintf("Arguments Error: %s expected %d argument(s), found %d", e.Command, e.Want, e.Got)
}

// ParseError reports an argument token that could not be parsed. Expect
// defaults to the numeral forms accepted for sizes and addresses.
type ParseError struct {
	Token  string
	Expect string
	Err    error
}

func (e ParseError) Error() string {
	expect := e.Expect
	if expect == "" {
		expect = "Hex, binary, Octal or Decimal value"
	}
	return fmt.Sprintf("Expect %s but found %s instead", expect, e.Token)
}

func (e ParseError) Unwrap() error {
	return e.Err
}

// ReadError wraps a backend failure. Bytes that are merely unresolved never
// produce one.
type ReadError struct {
	Err error
}

func (e ReadError) Error() string {
	return fmt.Sprintf("Read Failed: %v", e.Err)
}

func (e ReadError) Unwrap() error {
	return e.Err
}
