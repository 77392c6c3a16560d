package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dgallion1/chestnut/internal/convert"
	"github.com/dgallion1/chestnut/internal/document"
	"github.com/dgallion1/chestnut/internal/outline"
	"github.com/dgallion1/chestnut/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	parseJSON   bool
	parseNested bool
)

var parseCmd = &cobra.Command{
	Use:   "parse FILE",
	Short: "Print the outline of a single document",
	Long: `Convert and split FILE without storing it. The default output is a styled
outline; --json prints the title, index and sections as JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		meta, body, err := parseFile(args[0])
		if err != nil {
			return err
		}
		if parseNested {
			body = outline.NewParsedBody(body.ID(), body.Index(), outline.Nest(body.Content()))
		}

		out := cmd.OutOrStdout()
		if parseJSON {
			payload := map[string]any{"outline": body}
			if meta != nil {
				payload["meta"] = map[string]any{"name": meta.Name(), "values": meta.Values()}
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(payload)
		}
		printOutline(out, meta, body)
		return nil
	},
}

func init() {
	parseCmd.Flags().BoolVar(&parseJSON, "json", false, "Print JSON instead of a styled outline")
	parseCmd.Flags().BoolVar(&parseNested, "nested", false, "Fold sections under their parent headers")
	rootCmd.AddCommand(parseCmd)
}

// parseFile converts and splits one file, resolving the title the same way
// ingestion does.
func parseFile(path string) (*document.Meta, outline.ParsedBody, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, outline.ParsedBody{}, err
	}
	defer f.Close()

	conv, err := convert.ForFile(path, convert.Options{PDFFallbackPdftotext: true})
	if err != nil {
		return nil, outline.ParsedBody{}, err
	}
	text, err := conv.Convert(f, path)
	if err != nil {
		return nil, outline.ParsedBody{}, fmt.Errorf("convert %s: %w", path, err)
	}
	meta, body, err := outline.ForFile(path).Parse(text)
	if err != nil {
		return nil, outline.ParsedBody{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return meta, body.WithID(pipeline.ResolveTitle("", body.ID(), path)), nil
}
