package app

import (
	"context"
	"strings"

	"github.com/blackwell-systems/ebookmeta/internal/epub"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// infoWorkers bounds how many archives are opened at once.
const infoWorkers = 8

type infoResult struct {
	info epub.Info
	err  error
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <file.epub>...",
		Short: "Show the declared title, authors and size of EPUB books",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := readInfos(cmd.Context(), args)
			if err != nil {
				return err
			}

			failed := 0
			for i, r := range results {
				if r.err != nil {
					failed++
					fail("%s: %v", args[i], r.err)
					continue
				}
				header("%s", r.info.Path)
				printField("title", r.info.Title)
				if len(r.info.Authors) > 0 {
					printField("authors", strings.Join(r.info.Authors, ", "))
				}
				printField("size", humanize.Bytes(uint64(r.info.Size)))
			}
			if failed > 0 {
				warn("%d of %d file(s) could not be read", failed, len(args))
			}
			return nil
		},
	}
}

// readInfos reads the metadata of every path concurrently. Results keep
// the order of paths; a file that cannot be read does not stop the rest.
func readInfos(ctx context.Context, paths []string) ([]infoResult, error) {
	results := make([]infoResult, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(infoWorkers)

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			info, err := epub.ReadInfo(path)
			results[i] = infoResult{info: info, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
