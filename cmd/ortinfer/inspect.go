package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func (a *app) inspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [MODEL]",
		Short: "Show a model's inputs, outputs and metadata",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format := a.v.GetString("format")
			out := cmd.OutOrStdout()

			if a.v.GetBool("providers") {
				providers, err := a.providers()
				if err != nil {
					return err
				}
				if err := writeProviders(out, format, providers); err != nil {
					return err
				}
			}
			if len(args) == 0 {
				if a.v.GetBool("providers") {
					return nil
				}
				return errors.New("inspect needs a MODEL or --providers")
			}

			r, closeModel, err := a.openModel(cmd, args[0])
			if err != nil {
				return err
			}
			defer closeModel()

			d, err := r.Describe()
			if err != nil {
				return err
			}
			return writeDescription(out, format, d)
		},
	}

	cmd.Flags().Bool("providers", false, "List the execution providers of the runtime")
	cmd.Flags().String("format", formatText, "Output format (text, json, yaml)")
	return cmd
}

func writeProviders(w io.Writer, format string, providers []string) error {
	v := struct {
		Providers []string `json:"providers" yaml:"providers"`
	}{providers}

	return writeOutput(w, format, v, func(w io.Writer) error {
		for _, p := range providers {
			if _, err := fmt.Fprintln(w, p); err != nil {
				return err
			}
		}
		return nil
	})
}
