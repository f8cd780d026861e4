package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/lucasnoah/github-checks/internal/checks"
)

var previewOpts logOptions

var previewCmd = &cobra.Command{
	Use:   "preview <log>",
	Short: "Parse a tool log and print the resulting check run locally",
	Long: `Parse a tool log exactly as finish-check-run would and print the title,
conclusion, annotations and summary. Nothing is sent to GitHub and no session
is needed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := firstNonEmpty(previewOpts.repoPath, env.LocalRepoPath, ".")
		out, conclusion, err := previewOpts.parse(cmd.Context(), args[0], root)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Title:      %s\n", out.Title)
		fmt.Fprintf(w, "Conclusion: %s\n", conclusion)
		fmt.Fprintf(w, "Annotations: %d\n\n", len(out.Annotations))
		if len(out.Annotations) > 0 {
			writeAnnotationTable(w, out.Annotations)
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, out.Summary)
		return nil
	},
}

func writeAnnotationTable(w io.Writer, annotations []checks.Annotation) {
	table := newTable(w, []string{"Path", "Lines", "Level", "Title"})
	for _, a := range annotations {
		_ = table.Append([]string{a.Path, lineRange(a), string(a.Level), a.Title})
	}
	_ = table.Render()
}

func lineRange(a checks.Annotation) string {
	switch {
	case a.StartLine == 0:
		return "-"
	case a.EndLine == 0 || a.EndLine == a.StartLine:
		return strconv.Itoa(a.StartLine)
	default:
		return fmt.Sprintf("%d-%d", a.StartLine, a.EndLine)
	}
}

// newTable creates a markdown-style table writer shared by the listing commands.
func newTable(w io.Writer, headers []string) *tablewriter.Table {
	cfg := tablewriter.Config{
		Header: tw.CellConfig{
			Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			Formatting: tw.CellFormatting{AutoFormat: tw.Off},
		},
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignLeft},
		},
		MaxWidth: 120,
	}
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(cfg),
		tablewriter.WithHeader(headers),
		tablewriter.WithRenderer(renderer.NewBlueprint()),
		tablewriter.WithRendition(tw.Rendition{
			Symbols: tw.NewSymbols(tw.StyleMarkdown),
			Borders: tw.Border{Left: tw.On, Top: tw.Off, Right: tw.On, Bottom: tw.Off},
		}),
		tablewriter.WithRowAutoWrap(tw.WrapNone),
	)
}

func init() {
	previewOpts.register(previewCmd.Flags())
}
