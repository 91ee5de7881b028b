package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/microperf/pkg/archive"
)

// historyCommand creates the history command that lists recorded runs.
func (c *CLI) historyCommand() *cobra.Command {
	var (
		uri   string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "history [RUN-ID]",
		Short: "List recorded runs, or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openArchive(ctx, uri)
			if err != nil {
				return err
			}
			defer store.Close(ctx)

			if len(args) == 1 {
				rec, err := store.Get(ctx, args[0])
				if err != nil {
					return err
				}
				printRecord(rec)
				return nil
			}

			recs, err := store.List(ctx, limit)
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				printInfo("No runs recorded")
				return nil
			}
			for _, rec := range recs {
				printRecordLine(rec)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&uri, "archive", "", "run history: directory or mongodb:// URI")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to list")

	return cmd
}

func printRecordLine(rec archive.Record) {
	fmt.Fprintf(stdout, "%s  %s  %s  %s\n",
		StyleDim.Render(rec.CreatedAt.Local().Format("2006-01-02 15:04")),
		StyleHighlight.Render(rec.ID[:min(8, len(rec.ID))]),
		StyleValue.Render(rec.Name),
		StyleDim.Render(fmt.Sprintf("%d holes · %s", rec.Holes, strings.Join(rec.Formats, ","))),
	)
}

func printRecord(rec archive.Record) {
	printKeyValue("id", rec.ID)
	printKeyValue("document", rec.DocumentID)
	printKeyValue("name", rec.Name)
	printKeyValue("source", rec.Source)
	printKeyValue("created", rec.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	printKeyValue("patterns", strings.Join(rec.Patterns, ", "))
	printKeyValue("holes", fmt.Sprint(rec.Holes))
	printKeyValue("formats", strings.Join(rec.Formats, ", "))
	for _, out := range rec.Outputs {
		printFile(out)
	}
}
