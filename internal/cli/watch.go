package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/njchilds90/htmlsanitizer/v2"
	"github.com/njchilds90/htmlsanitizer/v2/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func (a *app) newWatchCommand() *cobra.Command {
	var (
		outDir      string
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:     "watch <dir>",
		Aliases: []string{"w"},
		Short:   "Sanitize HTML files as they appear in a directory",
		Long: `Sanitize every *.html and *.htm file in <dir> into --out, then keep
watching <dir> and re-sanitize files whenever they are created or written.
Stop with Ctrl+C.

Examples:
  htmlsan watch ./incoming --out ./clean --preset basic
  htmlsan watch ./incoming --out ./clean --metrics-addr :9090`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.sanitizer()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			reg := prometheus.NewRegistry()
			dw := &dirWatcher{
				sanitizer: s,
				src:       args[0],
				dst:       outDir,
				logger:    a.logger,
				metrics:   newWatchMetrics(reg),
			}
			if metricsAddr != "" {
				serveMetrics(ctx, metricsAddr, reg, a.logger)
			}
			return dw.run(ctx)
		},
	}

	cmd.Flags().StringVar(&outDir, "out", "", "directory for sanitized files")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

// dirWatcher mirrors the HTML files of src into dst through a sanitizer.
// Events are handled on one goroutine, so the sanitizer is never shared.
type dirWatcher struct {
	sanitizer *htmlsanitizer.Sanitizer
	src, dst  string
	logger    logging.Logger
	metrics   *watchMetrics

	// ready is called once src is being watched.
	ready func()
}

func (d *dirWatcher) run(ctx context.Context) error {
	if err := d.checkDirs(); err != nil {
		return err
	}
	if err := os.MkdirAll(d.dst, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(d.src); err != nil {
		return fmt.Errorf("failed to watch %s: %w", d.src, err)
	}
	if d.ready != nil {
		d.ready()
	}

	if err := d.syncAll(ctx); err != nil {
		return err
	}
	d.logger.Info(ctx, "watching for changes", "dir", d.src, "out", d.dst)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !isHTMLFile(event.Name) {
				continue
			}
			d.syncCounted(ctx, event.Name)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			d.logger.Error(ctx, err, "file watcher error")
		}
	}
}

func (d *dirWatcher) checkDirs() error {
	src, err := filepath.Abs(d.src)
	if err != nil {
		return err
	}
	dst, err := filepath.Abs(d.dst)
	if err != nil {
		return err
	}
	if src == dst {
		return errors.New("output directory must differ from the watched directory")
	}
	return nil
}

func (d *dirWatcher) syncAll(ctx context.Context) error {
	entries, err := os.ReadDir(d.src)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", d.src, err)
	}
	for _, e := range entries {
		if e.IsDir() || !isHTMLFile(e.Name()) {
			continue
		}
		d.syncCounted(ctx, filepath.Join(d.src, e.Name()))
	}
	return nil
}

// sync sanitizes one file into dst, replacing the previous output atomically.
func (d *dirWatcher) sync(ctx context.Context, path string) (err error) {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(d.dst, ".htmlsan-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	cw := &countingWriter{w: tmp}
	if err = sanitizeStream(d.sanitizer, in, cw, ""); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}

	target := filepath.Join(d.dst, filepath.Base(path))
	if err = os.Rename(tmp.Name(), target); err != nil {
		return err
	}
	d.metrics.bytes.Add(float64(cw.n))
	d.logger.Debug(ctx, "sanitized file", "file", path, "out", target, "bytes", cw.n)
	return nil
}

// syncCounted runs sync and records the outcome.
func (d *dirWatcher) syncCounted(ctx context.Context, path string) {
	if err := d.sync(ctx, path); err != nil {
		d.metrics.failed.Inc()
		d.logger.Error(ctx, err, "failed to sanitize file", "file", path)
		return
	}
	d.metrics.sanitized.Inc()
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

func isHTMLFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".htm":
		return true
	}
	return false
}
