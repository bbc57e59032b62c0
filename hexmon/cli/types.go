package cli

import "regexp"

type cliArgs struct {
	Files   []string `name:"file" short:"f" sep:"none" placeholder:"PATH[@PADDR]" help:"Load a file into physical memory. Repeatable."`
	Maps    []string `name:"map" short:"m" sep:"none" placeholder:"VADDR:PADDR:SIZE" help:"Map a virtual range onto physical memory. Repeatable."`
	Socket  string   `short:"s" env:"HEXMON_SOCKET" help:"Read memory from a hexmon RPC socket instead of local files."`
	Seek    string   `name:"seek" default:"0" help:"Initial location (0xNNNN, $NNNN, 0oNNN, 0bNNN or decimal)."`
	Mode    string   `name:"mode" default:"phy" enum:"phy,vir" help:"Address mode (phy, vir)."`
	Palette string   `name:"palette" env:"HEXMON_PALETTE" help:"Colour palette as ';' separated #rrggbb or r,g,b entries."`
	Color   string   `name:"color" default:"auto" enum:"auto,always,never" help:"Colour output (auto, always, never)."`
	Debug   bool     `name:"debug" help:"Log backend traffic to stderr."`

	Shell cliEmptyCmd    `cmd:"" default:"1" help:"Interactive session (default)."`
	PX    cliPrintHexCmd `cmd:"" name:"px" aliases:"printHex" help:"View data at the current location in hex format."`
	Serve cliServeCmd    `cmd:"" help:"Serve the loaded address space over RPC."`
	Ping  cliEmptyCmd    `cmd:"" help:"Ping an RPC server."`
}

type cliEmptyCmd struct{}

type cliPrintHexCmd struct {
	Args []string `arg:"" optional:"" name:"size" help:"Byte count (decimal, 0x hex, 0o octal or 0b binary)."`
}

type cliServeCmd struct {
	Listen string `name:"listen" short:"l" default:"/tmp/hexmon.sock" help:"Unix socket path to listen on."`
}

var cliPathAliasPattern = regexp.MustCompile(`\s*\([^)]*\)`)
