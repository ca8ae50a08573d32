package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"
	"golang.org/x/net/html/charset"
)

func (a *app) newDiffCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "diff [file]",
		Short: "Show what the policy changes in a document",
		Long: `Sanitize a file (or standard input) and print every span the policy
removed, prefixed with "-", and every span it inserted, prefixed with "+".
Nothing is printed when the document passes unchanged.

Examples:
  htmlsan diff --preset basic comment.html`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.sanitizer()
			if err != nil {
				return err
			}

			var r io.Reader = cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open input: %w", err)
				}
				defer f.Close()
				r = f
			}
			utf8Reader, err := charset.NewReader(r, "")
			if err != nil {
				return fmt.Errorf("failed to detect input encoding: %w", err)
			}
			in, err := io.ReadAll(utf8Reader)
			if err != nil {
				return err
			}

			out, err := s.SanitizeString(string(in))
			if err != nil {
				return err
			}
			return writeChanges(cmd.OutOrStdout(), string(in), out)
		},
	}
}

// writeChanges prints the deletions and insertions that turn before into
// after, one quoted span per line.
func writeChanges(w io.Writer, before, after string) error {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(before, after, false))
	for _, d := range diffs {
		var prefix string
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		default:
			continue
		}
		if _, err := fmt.Fprintf(w, "%s%q\n", prefix, d.Text); err != nil {
			return err
		}
	}
	return nil
}
