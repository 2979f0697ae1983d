// Save command: runs the upload pipeline for one sequence.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/englishaccelerators/language-creator/internal/export"
	"github.com/englishaccelerators/language-creator/internal/upload"
	"github.com/englishaccelerators/language-creator/pkg/types"
)

const barWidth = 30

func newSaveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "save <seq>",
		Short: "Save the exportable pairs of a sequence",
		Long: `Save uploads the exportable pairs of a sequence to api.base in chunks of
upload.chunk_size rows over upload.lanes concurrent requests. With api.base set
to LOCAL_ONLY the pairs are queued locally instead. A spreadsheet of the saved
pairs is written to export.dir on success.

Ctrl-C stops further chunks from being sent; requests already in flight
finish. Rows sent before cancellation stay saved.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return a.withModel(args[0], func(s *session, m types.SeqModel) error {
				return a.save(ctx, s, m)
			})
		},
	}
}

func (a *app) save(ctx context.Context, s *session, m types.SeqModel) error {
	list, err := s.blocksOf(m)
	if err != nil {
		return err
	}
	p := upload.New(upload.Options{
		API:       a.cfg.API,
		Reason:    s.ns.Slug(),
		ChunkSize: a.cfg.Upload.ChunkSize,
		Lanes:     a.cfg.Upload.Lanes,
		Timeout:   a.cfg.Upload.Timeout,
		Rule:      s.rule,
	}, upload.NewQueue(s.store), export.Dir{Path: a.cfg.Export.Dir})

	if !a.flags.jsonMode {
		p.OnProgress(newProgressPrinter(a.errOut))
	}
	res, err := p.Save(ctx, m, list)
	if a.flags.jsonMode {
		out := map[string]any{
			"state":   res.State.String(),
			"total":   res.Total,
			"sent":    res.Sent,
			"chunks":  res.Chunks,
			"local":   res.Local,
			"message": res.Message,
			"export":  res.ExportPath,
		}
		if err != nil {
			out["error"] = err.Error()
		}
		if perr := a.printJSON(out); perr != nil {
			return perr
		}
	} else {
		fmt.Fprintln(a.out, res.Message)
		if res.ExportPath != "" {
			fmt.Fprintln(a.out, "Spreadsheet:", res.ExportPath)
		}
	}
	switch {
	case errors.Is(err, upload.ErrSaveInProgress):
		return userErr(err)
	case err != nil:
		return sysErr(err)
	}
	return nil
}

// newProgressPrinter renders progress in place on a terminal and as one line
// per message or completed chunk otherwise.
func newProgressPrinter(w io.Writer) func(upload.Progress) {
	f, ok := w.(*os.File)
	tty := ok && term.IsTerminal(int(f.Fd()))
	lastMsg, lastSent := "", -1
	return func(p upload.Progress) {
		if p.State.Terminal() {
			if tty && lastSent >= 0 {
				fmt.Fprintln(w)
			}
			return
		}
		if p.Message != lastMsg {
			if tty && lastSent >= 0 {
				fmt.Fprintln(w)
				lastSent = -1
			}
			fmt.Fprintln(w, p.Message)
			lastMsg = p.Message
		}
		if p.State != upload.StateSending || p.Sent == lastSent {
			return
		}
		lastSent = p.Sent
		line := fmt.Sprintf("%3d%% %s/%s rows", p.Percent(),
			humanize.Comma(int64(p.Sent)), humanize.Comma(int64(p.Total)))
		if tty {
			filled := p.Percent() * barWidth / 100
			bar := strings.Repeat("#", filled) + strings.Repeat(".", barWidth-filled)
			fmt.Fprintf(w, "\r[%s] %s", bar, line)
			return
		}
		fmt.Fprintln(w, line)
	}
}
