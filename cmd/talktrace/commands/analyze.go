package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"talktrace/internal/projection"
	"talktrace/internal/session"
	"talktrace/internal/visuals"

	"github.com/mattn/go-isatty"
	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	analyzeUser   string
	analyzeFormat string
	analyzeOutput string
	analyzeOpen   bool
)

// errAnalysisFailed is returned after an analysis error has been rendered.
var errAnalysisFailed = errors.New("analysis failed")

var analyzeCmd = &cobra.Command{
	Use:   "analyze <chat.txt>",
	Short: "Analyze one chat transcript and print the result",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeUser, "user", "u", string(session.Overall), "participant to analyze")
	analyzeCmd.Flags().StringVarP(&analyzeFormat, "format", "f", string(visuals.FormatTable), "output format: table, mermaid, json or html")
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "", "write to this file instead of stdout (html defaults to the report directory)")
	analyzeCmd.Flags().BoolVar(&analyzeOpen, "open", false, "write an HTML report and open it in the browser")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	format, err := visuals.ParseFormat(analyzeFormat)
	if err != nil {
		return err
	}
	if analyzeOpen {
		format = visuals.FormatHTML
	}

	path := args[0]
	if err := session.CheckTranscriptName(path); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read chat file: %w", err)
	}
	file := session.ChatFile{Name: filepath.Base(path), Data: data}

	st, err := analyzeOnce(cmd.Context(), newStore(), file, session.Participant(analyzeUser))
	if err != nil {
		return err
	}
	m := projection.Project(st)

	if format == visuals.FormatHTML || analyzeOutput != "" {
		out := analyzeOutput
		if out == "" {
			out = filepath.Join(cfg.ReportDir, reportName(file.Name, st.SelectedParticipant))
		}
		if err := writeFile(out, format, m, st); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		if analyzeOpen {
			if err := browser.OpenFile(out); err != nil {
				log.Warn().Err(err).Str("path", out).Msg("Failed to open report in browser")
			}
		}
	} else {
		colour := cfg.Colour && isatty.IsTerminal(os.Stdout.Fd())
		if err := visuals.Render(cmd.OutOrStdout(), format, m, visuals.Options{Colour: colour}); err != nil {
			return err
		}
	}

	if st.ErrorMessage != "" {
		return errAnalysisFailed
	}
	return nil
}

// analyzeOnce runs a store for a single file selection, optionally narrowed
// to one participant, and returns the settled state.
func analyzeOnce(ctx context.Context, store *session.Store, file session.ChatFile, participant session.Participant) (session.State, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var st session.State
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return store.Run(gctx) })
	g.Go(func() error {
		defer cancel()

		if err := store.SelectFile(gctx, file); err != nil {
			return err
		}
		var err error
		if st, err = store.WaitSettled(gctx); err != nil {
			return err
		}
		if participant == "" || participant == session.Overall || st.ErrorMessage != "" {
			return nil
		}

		if err := store.SelectParticipant(gctx, participant); err != nil {
			if errors.Is(err, session.ErrUnknownParticipant) {
				return fmt.Errorf("%w: %q (participants: %s)", err, participant, strings.Join(st.Result.Report.Users, ", "))
			}
			return err
		}
		st, err = store.WaitSettled(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return session.State{}, err
	}
	return st, nil
}

func reportName(file string, participant session.Participant) string {
	base := strings.TrimSuffix(file, filepath.Ext(file))
	return fmt.Sprintf("%s-%s-%s.html", base, participant, time.Now().Format("20060102-150405"))
}

func writeFile(path string, format visuals.Format, m projection.ChartModel, st session.State) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	renderErr := visuals.Render(f, format, m, visuals.Options{HTML: visuals.HTMLOptions{Sequence: st.LatestSequence}})
	if err := f.Close(); err != nil && renderErr == nil {
		renderErr = err
	}
	return renderErr
}
