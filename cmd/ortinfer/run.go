package main

import (
	"github.com/spf13/cobra"
)

func (a *app) runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run MODEL",
		Short: "Run one inference and print the interpreted output",
		Long: `Run loads MODEL (a path, http(s) URL or gs:// URL), binds the input
values to its single input and prints the selected output.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := a.inputValues(cmd)
			if err != nil {
				return err
			}

			r, closeModel, err := a.openModel(cmd, args[0])
			if err != nil {
				return err
			}
			defer closeModel()

			result, err := r.Run(cmd.Context(), values)
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), a.v.GetString("format"), result)
		},
	}

	addInputFlags(cmd)
	cmd.Flags().String("format", formatText, "Output format (text, json, yaml)")
	return cmd
}

func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().String("input", "1,2,3,4", "Input values, separated by commas or spaces")
	cmd.Flags().String("input-file", "", "Read input values from a file (.json array or plain numbers; - for stdin)")
}

func (a *app) inputValues(cmd *cobra.Command) ([]float64, error) {
	if path := a.v.GetString("input-file"); path != "" {
		return readValues(path, cmd.InOrStdin())
	}
	return parseValues(a.v.GetString("input"))
}
