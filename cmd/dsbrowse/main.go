// Package main implements dsbrowse, a command line browser that pages through a memory, SQL or HTTP source.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/iotaledger/hive.go/datasource/collection"
	"github.com/iotaledger/hive.go/datasource/config"
	"github.com/iotaledger/hive.go/datasource/scheduler"
	"github.com/iotaledger/hive.go/ierrors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "dsbrowse: %s\n", err)
		cancel()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	parameters, err := config.Load(args, "DSBROWSE")
	if err != nil {
		return err
	}

	logger, err := parameters.Logger.NewLogger()
	if err != nil {
		return err
	}

	if len(parameters.FlagOverrides) != 0 {
		logger.LogDebug("settings overridden on the command line", "keys", parameters.FlagOverrides)
	}

	pagedOptions, err := config.PagedOptions[record](&parameters.Collection)
	if err != nil {
		return err
	}

	loop := scheduler.New("dsbrowse")
	defer loop.Shutdown()

	pagedOptions = append(pagedOptions,
		collection.WithScheduler[record](loop),
		collection.WithLogger[record](logger),
		collection.WithInitialLoad[record](false),
	)

	src, err := openSource(parameters, logger, pagedOptions)
	if err != nil {
		return ierrors.Wrapf(err, "unable to open %s source", parameters.Source)
	}
	defer src.close()

	logger.LogInfo("browsing source", "source", parameters.Source, "collection", src.paged)

	return browse(ctx, src.paged, os.Stdout)
}
