package hexmon

import (
	"context"

	"hexmon/internal/memory"
)

type Command interface {
	Names() []string
	Help() string
	Run(ctx context.Context, core Core, args []string) error
}

// PrintHex dumps [size] bytes at the cursor as hex plus ASCII.
type PrintHex struct{}

func NewPrintHex() PrintHex {
	return PrintHex{}
}

func (PrintHex) Names() []string {
	return []string{"printHex", "px"}
}

func (PrintHex) Help() string {
	return formatHelp("printHex", "px", "[size]", "View data of at current location in hex format")
}

// Run writes nothing to core.Stdout unless the read succeeded.
func (PrintHex) Run(ctx context.Context, core Core, args []string) error {
	if len(args) != 1 {
		return ArityError{Command: "printHex", Want: 1, Got: len(args)}
	}
	size, err := memory.ParseSize(args[0])
	if err != nil {
		return ParseError{Token: args[0], Err: err}
	}
	data, err := readSparse(ctx, core, core.Loc, size)
	if err != nil {
		return err
	}
	return memory.DumpSparse(core.Stdout, core.Loc, size, data, core.styler())
}
