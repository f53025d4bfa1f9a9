package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/codetutor/cmd/codetutor/commands"
	ferrors "git.home.luguber.info/inful/codetutor/internal/foundation/errors"
	"git.home.luguber.info/inful/codetutor/internal/version"
)

func main() {
	var cli commands.CLI
	kctx := kong.Parse(&cli,
		kong.Name("codetutor"),
		kong.Description("Turn a codebase into a beginner-friendly tutorial."),
		kong.Vars{"version": version.String()},
		kong.UsageOnError(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := kctx.Run(&commands.Global{Context: ctx, Logger: slog.Default()})
	stop()

	ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
