package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"resqgrid/internal/grid"
	"resqgrid/internal/logging"
	"resqgrid/internal/session"
)

// runCmd submits each argument in order through one session
var runCmd = &cobra.Command{
	Use:   "run [report]...",
	Short: "Process reports in order against one grid",
	Long: `Each argument is one report. Reports are processed in order through a
single session, so later reports see the grid left by earlier ones.

Example:
  resq run "Activate grid for Mumbai" "There is a fire, help!" "Reset map"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runReports,
}

// chatCmd runs a line-oriented session over stdin
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive session, one report per line",
	Long: `Reads reports from stdin, one per line, against a single grid.

Session commands:
  /focus DISTRICT   focus a district, as clicking a cell would
  /grid             print cells that are not idle
  /quit             leave (also: exit, quit, EOF)`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func newSession(cmd *cobra.Command) (*session.Session, error) {
	orch, err := newOrchestrator(cmd.Context())
	if err != nil {
		return nil, err
	}
	return session.New(orch, orch.Catalog().Baseline(),
		session.WithLogger(logging.For(logger, logging.CategorySession))), nil
}

func runReports(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()
	cmd.SetContext(ctx)

	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	for _, report := range args {
		if strings.TrimSpace(report) == "" {
			continue
		}
		if err := submit(cmd, s, report); err != nil {
			return err
		}
	}
	return nil
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()
	cmd.SetContext(ctx)

	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !jsonOutput {
		fmt.Fprintf(out, "%s ready. Describe the situation, or /quit to leave.\n", banner())
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/quit" || line == "exit" || line == "quit":
			return nil
		case line == "/grid":
			writeActiveCells(cmd, s)
			continue
		case strings.HasPrefix(line, "/focus "):
			s.SetFocus(strings.TrimSpace(strings.TrimPrefix(line, "/focus ")))
			fmt.Fprintf(out, "focus: %s\n", s.Focus())
			continue
		}

		if err := submit(cmd, s, line); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func submit(cmd *cobra.Command, s *session.Session, report string) error {
	prev := s.Snapshot()
	outcome, err := s.Submit(cmd.Context(), report)
	if err != nil {
		if errors.Is(err, session.ErrBusy) {
			logging.For(logger, logging.CategorySession).Warn("submission rejected", zap.Error(err))
		}
		return err
	}
	return writeOutcome(cmd.OutOrStdout(), outcome, prev, s.Focus())
}

func writeActiveCells(cmd *cobra.Command, s *session.Session) {
	out := cmd.OutOrStdout()
	snap := s.Snapshot()
	n := 0
	for i := 0; i < snap.Len(); i++ {
		cell := snap.At(i)
		if cell.Status == grid.StatusIdle {
			continue
		}
		n++
		fmt.Fprintf(out, "  %s %s, %s: %s/%d\n", cell.ID, cell.SubRegion, cell.Region, cell.Status, cell.RiskScore)
	}
	if n == 0 {
		fmt.Fprintln(out, "  all cells idle")
	}
}
