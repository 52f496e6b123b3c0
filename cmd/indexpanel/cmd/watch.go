package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/indexpanel/internal/document"
	perrors "github.com/Aman-CERP/indexpanel/internal/errors"
	"github.com/Aman-CERP/indexpanel/internal/output"
	"github.com/Aman-CERP/indexpanel/internal/ui"
	"github.com/Aman-CERP/indexpanel/internal/watcher"
	"github.com/Aman-CERP/indexpanel/internal/workflow"
)

type watchOptions struct {
	write    bool
	poll     bool
	debounce time.Duration
}

func newWatchCmd(a *app) *cobra.Command {
	var opts watchOptions

	cmd := &cobra.Command{
		Use:   "watch FILE",
		Short: "Resubmit a document whenever it changes",
		Long: `Watch submits FILE once, then again after every change on disk.

Changes that arrive while a submission is in flight are collapsed into one
resubmission of the newest content. With --write the pretty-printed document
is written back after each valid submission; that write does not trigger
another submission.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runWatch(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.write, "write", "w", false, "Write the pretty-printed document back to FILE")
	cmd.Flags().BoolVar(&opts.poll, "poll", false, "Poll for changes instead of using file system events")
	cmd.Flags().DurationVar(&opts.debounce, "debounce", watcher.DefaultOptions().DebounceWindow, "Quiet period before a change is submitted")

	return cmd
}

type watchResult struct {
	outcome workflow.Outcome
	err     error
}

func (a *app) runWatch(cmd *cobra.Command, path string, opts watchOptions) error {
	if _, err := a.config(); err != nil {
		return err
	}

	doc, err := document.Open(path)
	if err != nil {
		return err
	}

	w, err := watcher.New(path, watcher.Options{DebounceWindow: opts.debounce, ForcePolling: opts.poll})
	if err != nil {
		return err
	}

	ctrl, release, err := a.newController()
	if err != nil {
		return err
	}
	defer release()

	out := output.New(cmd.OutOrStdout())
	renderer := ui.NewRenderer(a.uiConfig(cmd.OutOrStdout()))
	sel := a.selection()

	out.Statusf(output.IconInfo, "Watching %s (%s). Press Ctrl+C to stop.", path, w.Mode())

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		return w.Start(ctx)
	})
	g.Go(func() error {
		defer func() { _ = w.Stop() }()
		loop := &watchLoop{
			ctx:      ctx,
			ctrl:     ctrl,
			doc:      doc,
			sel:      sel,
			write:    opts.write,
			out:      out,
			renderer: renderer,
		}
		return loop.run(w)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// watchLoop owns the document between submissions. At most one
// submission runs at a time; changes seen meanwhile set queued.
type watchLoop struct {
	ctx      context.Context
	ctrl     *workflow.Controller
	doc      *document.File
	sel      workflow.Selection
	write    bool
	out      *output.Writer
	renderer ui.Renderer

	inflight    chan watchResult
	queued      bool
	lastWritten string
}

func (l *watchLoop) run(w *watcher.FileWatcher) error {
	l.start(false)

	changes := w.Changes()
	watchErrs := w.Errors()
	for {
		select {
		case <-l.ctx.Done():
			return nil

		case res := <-l.inflight:
			l.inflight = nil
			l.finish(res)
			if l.queued {
				l.queued = false
				l.start(true)
			}

		case change, ok := <-changes:
			if !ok {
				return nil
			}
			if change.Operation == watcher.OpDelete {
				l.out.Warningf("%s was removed; waiting for it to return", change.Path)
				continue
			}
			if l.ownWrite(change.Path) {
				slog.Debug("watch_own_write_skipped", slog.String("path", change.Path))
				continue
			}
			if l.inflight != nil {
				l.queued = true
				continue
			}
			l.start(true)

		case err, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			l.out.Warning(perrors.Message(err))
		}
	}
}

// start submits the document, re-reading it first when reload is set.
func (l *watchLoop) start(reload bool) {
	if reload {
		if err := l.doc.Reload(); err != nil {
			l.out.Warning(perrors.Message(err))
			return
		}
	}

	ch := make(chan watchResult, 1)
	l.inflight = ch
	go func() {
		outcome, err := submitOnce(l.ctx, l.ctrl, l.sel, l.doc, l.renderer)
		ch <- watchResult{outcome: outcome, err: err}
	}()
}

func (l *watchLoop) finish(res watchResult) {
	if res.err != nil {
		l.out.Error(perrors.Message(res.err))
		return
	}
	l.renderer.Complete(res.outcome)

	if !l.write || !l.doc.Modified() {
		return
	}
	if err := l.doc.Save(l.ctx); err != nil {
		l.out.Warning(perrors.Message(err))
		return
	}
	l.lastWritten = l.doc.Text()
}

// ownWrite reports whether path holds exactly what the loop last wrote.
func (l *watchLoop) ownWrite(path string) bool {
	if l.lastWritten == "" {
		return false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return strings.TrimRight(string(data), "\n") == strings.TrimRight(l.lastWritten, "\n")
}
