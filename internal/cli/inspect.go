package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/microperf/pkg/drawing"
	"github.com/matzehuels/microperf/pkg/errors"
	"github.com/matzehuels/microperf/pkg/sink"
)

// inspectCommand creates the inspect command that summarises a DXF file.
func (c *CLI) inspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect FILE.dxf",
		Short: "Summarise the layers and extent of a DXF file",
		Long: `Summarise the layers and extent of a DXF file.

Only the entities microperf writes (CIRCLE, LINE, ARC, TEXT) are read; anything
else in the file is skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDXF(args[0])
			if err != nil {
				return err
			}
			printDocument(args[0], doc)
			if doc.Count(drawing.LayerHoles) == 0 {
				printWarning("no %q layer: not a microperf drawing?", drawing.LayerHoles)
			}
			return nil
		},
	}
}

func readDXF(path string) (*drawing.Document, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeNotFound, "file not found: %s", path)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := sink.DecodeDXF(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return doc, nil
}

func printDocument(path string, doc *drawing.Document) {
	fmt.Fprintln(stdout, StyleTitle.Render(path))
	printKeyValue("entities", strconv.Itoa(doc.Len()))
	for _, layer := range doc.Layers() {
		printKeyValue("  "+layer, strconv.Itoa(doc.Count(layer)))
	}
	if b, ok := doc.Bounds(); ok {
		printKeyValue("min", fmt.Sprintf("%.4f, %.4f", b.Min.X, b.Min.Y))
		printKeyValue("max", fmt.Sprintf("%.4f, %.4f", b.Max.X, b.Max.Y))
		printKeyValue("size", fmt.Sprintf("%.4f x %.4f mm", b.Max.X-b.Min.X, b.Max.Y-b.Min.Y))
	} else {
		printKeyValue("extent", StyleDim.Render("empty"))
	}
}
