package main

import (
	"context"
	"os"

	"github.com/lwmacct/261016-go-bin-tplr/internal/apperr"
	"github.com/lwmacct/261016-go-bin-tplr/internal/command/render"
)

func main() {
	err := render.NewCommand().Run(context.Background(), os.Args)
	os.Exit(apperr.ExitCode(err))
}
