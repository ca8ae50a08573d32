package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/njchilds90/htmlsanitizer/v2"
	"github.com/njchilds90/htmlsanitizer/v2/config"
	"github.com/spf13/cobra"
	"golang.org/x/net/html/charset"
	"golang.org/x/sync/errgroup"
)

func (a *app) newSanitizeCommand() *cobra.Command {
	var (
		output       string
		inputCharset string
		jobs         int
	)

	cmd := &cobra.Command{
		Use:     "sanitize [files...]",
		Aliases: []string{"s"},
		Short:   "Sanitize HTML files or standard input",
		Long: `Sanitize each file and write the results, concatenated in argument order,
to stdout or to --output. With no files, standard input is read.

Input is decoded to UTF-8 first. The encoding comes from --input-charset, a
byte order mark, or a <meta> charset declaration, falling back to UTF-8 when
the bytes are valid UTF-8 and windows-1252 otherwise.

Examples:
  htmlsan sanitize --preset basic comment.html
  htmlsan sanitize --preset relaxed --jobs 8 -o all.html pages/*.html
  curl -s https://example.com | htmlsan sanitize --preset relaxed`,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if jobs < 1 {
				return errors.New("--jobs must be at least 1")
			}
			cfg, err := a.policy()
			if err != nil {
				return err
			}

			w := io.Writer(cmd.OutOrStdout())
			if output != "" && output != "-" {
				var f *outputFile
				if f, err = newOutputFile(output); err != nil {
					return err
				}
				defer func() {
					if err != nil {
						f.discard()
						return
					}
					err = f.commit()
				}()
				w = f
			}

			contentType := contentTypeFor(inputCharset)
			if len(args) == 0 {
				s, err := a.newSanitizer(cfg)
				if err != nil {
					return err
				}
				return sanitizeStream(s, cmd.InOrStdin(), w, contentType)
			}
			return a.sanitizeFiles(cmd.Context(), cfg, args, w, contentType, jobs)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the result to this file instead of stdout")
	cmd.Flags().StringVar(&inputCharset, "input-charset", "", "encoding of the input, overriding detection")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 1, "number of files sanitized in parallel")
	return cmd
}

func contentTypeFor(cs string) string {
	if cs == "" {
		return ""
	}
	return "text/html; charset=" + cs
}

// sanitizeFiles sanitizes names with up to jobs workers and writes the
// results to w in argument order.
func (a *app) sanitizeFiles(ctx context.Context, cfg *config.Config, names []string, w io.Writer, contentType string, jobs int) error {
	results := make([]bytes.Buffer, len(names))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s, err := a.newSanitizer(cfg)
			if err != nil {
				return err
			}
			return a.sanitizeFile(ctx, s, name, &results[i], contentType)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i := range results {
		if _, err := results[i].WriteTo(w); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) sanitizeFile(ctx context.Context, s *htmlsanitizer.Sanitizer, name string, w io.Writer, contentType string) error {
	f, err := os.Open(name)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	a.logger.Debug(ctx, "sanitizing file", "file", name)
	if err := sanitizeStream(s, f, w, contentType); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// sanitizeStream decodes r to UTF-8 and sanitizes it into w.
func sanitizeStream(s *htmlsanitizer.Sanitizer, r io.Reader, w io.Writer, contentType string) error {
	utf8Reader, err := charset.NewReader(r, contentType)
	if err != nil {
		return fmt.Errorf("failed to detect input encoding: %w", err)
	}
	return s.SanitizeReader(utf8Reader, w)
}

// outputFile collects output in a temporary file next to its target and
// only replaces the target on commit.
type outputFile struct {
	*os.File
	target string
}

func newOutputFile(target string) (*outputFile, error) {
	tmp, err := os.CreateTemp(filepath.Dir(target), ".htmlsan-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return &outputFile{File: tmp, target: target}, nil
}

func (o *outputFile) commit() error {
	if err := o.Chmod(0o644); err != nil {
		o.discard()
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if err := o.Close(); err != nil {
		o.discard()
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if err := os.Rename(o.Name(), o.target); err != nil {
		os.Remove(o.Name())
		return fmt.Errorf("failed to replace output file: %w", err)
	}
	return nil
}

func (o *outputFile) discard() {
	o.Close()
	os.Remove(o.Name())
}
