package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/iotaledger/hive.go/datasource/collection"
	"github.com/iotaledger/hive.go/ierrors"
)

// browse loads the pages of the collection one after another, starting at the current page, and prints them until the
// last page was printed.
func browse(ctx context.Context, paged *collection.Paged[record], out io.Writer) error {
	loaded := make(chan *collection.PageLoadedEvent[record], 1)
	defer paged.Events().PageLoaded.Hook(func(event *collection.PageLoadedEvent[record]) { loaded <- event }).Unhook()

	failed := make(chan *collection.PageLoadFailedEvent, 1)
	defer paged.Events().PageLoadFailed.Hook(func(event *collection.PageLoadFailedEvent) { failed <- event }).Unhook()

	for {
		paged.Load()

		select {
		case <-ctx.Done():
			paged.Cancel()

			return ctx.Err()
		case event := <-failed:
			return ierrors.Wrapf(event.Error, "unable to load page %d", event.Page)
		case event := <-loaded:
			if err := printPage(out, event, paged.TotalCount()); err != nil {
				return err
			}
		}

		if !paged.HasNextPage() {
			return nil
		}

		paged.SetPage(paged.Page() + 1)
	}
}

func printPage(out io.Writer, event *collection.PageLoadedEvent[record], totalCount int) error {
	writer := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	fmt.Fprintf(writer, "page %d (%d items, total %d)\n", event.Page, len(event.Items), totalCount)
	fmt.Fprintln(writer, "ID\tNAME\tCATEGORY\tPRICE")
	for _, item := range event.Items {
		fmt.Fprintf(writer, "%d\t%s\t%s\t%.2f\n", item.ID, item.Name, item.Category, item.Price)
	}

	return writer.Flush()
}
