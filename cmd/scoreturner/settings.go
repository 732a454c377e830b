package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ayusman/scoreturner/internal/store"
)

func newSettingsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Print the stored gesture settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(opts, func(st *store.Store) error {
				s, err := st.Settings().Load()
				if err != nil {
					return err
				}
				return printSettings(cmd.OutOrStdout(), s)
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Restore the default gesture settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(opts, func(st *store.Store) error {
				s, err := st.Settings().Save(store.DefaultSettings())
				if err != nil {
					return err
				}
				return printSettings(cmd.OutOrStdout(), s)
			})
		},
	})
	return cmd
}

// withStore opens the configured store for the duration of fn.
func withStore(opts *options, fn func(*store.Store) error) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	st, err := store.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	return fn(st)
}

// printSettings writes the settings as YAML followed by the gestures they
// enable.
func printSettings(w io.Writer, s store.Settings) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}

	kinds := s.GestureConfig().Enabled.Kinds()
	if !s.UseFaceGestures {
		fmt.Fprintln(w, "# face gestures are off")
	}
	fmt.Fprintf(w, "# active gestures: %v\n", kinds)
	return nil
}
