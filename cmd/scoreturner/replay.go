package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ayusman/scoreturner/internal/replay"
)

func newReplayCmd(opts *options) *cobra.Command {
	var trace bool

	cmd := &cobra.Command{
		Use:   "replay <scenario.yaml>",
		Short: "Run a recorded frame sequence through a fresh gesture engine",
		Long: `Replay feeds every frame of a YAML scenario to a new engine and prints the
gestures that fire. When the scenario lists expected gestures the command
fails if the output differs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := replay.Load(args[0])
			if err != nil {
				return err
			}
			return runReplay(cmd.OutOrStdout(), s, trace)
		},
	}

	cmd.Flags().BoolVar(&trace, "trace", false, "Print the engine state after every frame")
	return cmd
}

func runReplay(w io.Writer, s *replay.Scenario, trace bool) error {
	cfg := s.GestureConfig()

	if s.Name != "" {
		fmt.Fprintf(w, "scenario: %s\n", s.Name)
	}
	fmt.Fprintf(w, "frames: %d, cooldown: %dms, enabled: %v\n", len(s.Frames), cfg.CooldownMs, cfg.Enabled.Kinds())

	if trace {
		for _, step := range replay.Trace(s, cfg) {
			fired := "-"
			if step.Event != nil {
				fired = step.Event.Kind.String()
			}
			st := step.State
			fmt.Fprintf(w, "%4d %7dms %-10s baseline=%v(%.1f) nod_down=%v nod_up=%v smile=%v\n",
				step.Frame, step.AtMs, fired, st.HasBaseline, st.BaselinePitch,
				st.NodDownLatched, st.NodUpLatched, st.SmileLatched)
		}
	}

	events := replay.Run(s, cfg)
	for _, ev := range events {
		fmt.Fprintf(w, "%7dms %s\n", ev.AtMs, ev.Kind)
	}
	fmt.Fprintf(w, "%d gesture(s) fired\n", len(events))

	if err := s.Check(events); err != nil {
		return err
	}
	if s.Expect != nil {
		fmt.Fprintln(w, "matches expected gestures")
	}
	return nil
}
