package main

import (
	"context"
	"os"

	"github.com/Nevi32/wofuo1/internal/app/runtime"
	"github.com/Nevi32/wofuo1/internal/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	app, err := runtime.New(ctx)
	if err != nil {
		logger.CtxError(ctx, "failed to initialize app", err)
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.CtxError(ctx, "app stopped with error", err)
		os.Exit(1)
	}
}
