package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"git.home.luguber.info/inful/doxyhook/internal/orchestrator"
)

// StatusCmd implements the 'status' command.
type StatusCmd struct {
	Format string `short:"f" enum:"text,json" default:"text" help:"Output format (text, json)"`

	out io.Writer
}

func (s *StatusCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	st, err := orchestrator.New(cfg, nil).Status()
	if err != nil {
		return err
	}

	out := s.out
	if out == nil {
		out = os.Stdout
	}
	if s.Format == "json" {
		data, err := json.MarshalIndent(st, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal status: %w", err)
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}
	return writeStatusText(out, st)
}

func writeStatusText(w io.Writer, st orchestrator.StatusReport) error {
	flag := "unset"
	if st.HostedSet {
		flag = fmt.Sprintf("%q", st.HostedValue)
	}
	lines := []string{
		fmt.Sprintf("Hosted build:  %t (%s=%s)", st.Hosted, st.HostedVariable, flag),
		fmt.Sprintf("Output:        %s (exists: %t)", st.OutputDir, st.OutputExists),
	}
	if st.LastRun != nil {
		lines = append(lines, fmt.Sprintf("Last run:      %s %s at %s (%s)",
			st.LastRun.Mode, st.LastRun.Outcome, st.LastRun.Timestamp.Format("2006-01-02 15:04:05Z07:00"), st.LastRun.ID))
		if st.LastRun.Source.Commit != "" {
			lines = append(lines, fmt.Sprintf("Built from:    %s", st.LastRun.Source.Commit))
		}
		if st.LastRun.Inputs != "" {
			lines = append(lines, fmt.Sprintf("Inputs hash:   %s", st.LastRun.Inputs))
		}
	} else {
		lines = append(lines, "Last run:      none")
	}
	if st.Head != nil {
		head := st.Head.Short()
		if st.Head.Branch != "" {
			head += " (" + st.Head.Branch + ")"
		}
		lines = append(lines, "Source HEAD:   "+head)
	}
	if st.Stale {
		lines = append(lines, "Output is stale: sources changed since the last run")
	}
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}
