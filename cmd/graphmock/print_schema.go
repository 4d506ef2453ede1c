package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hanpama/graphmock/internal/schema"
)

func newPrintSchemaCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "print-schema",
		Short: "Merge and validate the schema files and print the SDL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sch, err := a.loadSchema()
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), schema.Render(sch))
			return err
		},
	}
}
