package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version kong.VersionFlag `short:"v" help:"Show version"`
	Serve   ServeCmd         `cmd:"" help:"Run the housie game server"`
	Rooms   RoomsCmd         `cmd:"" help:"List live rooms on a running server"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("housie"),
		kong.Description("Multiplayer housie (tambola) game server"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
