package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hanpama/graphmock/internal/handler"
)

func newQueryCmd(a *app) *cobra.Command {
	var (
		file      string
		variables string
		operation string
	)
	cmd := &cobra.Command{
		Use:   "query [document]",
		Short: "Run one GraphQL operation against the mock data and print the result",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := queryDocument(args, file)
			if err != nil {
				return err
			}
			vars := map[string]any{}
			if variables != "" {
				if err := json.Unmarshal([]byte(variables), &vars); err != nil {
					return fmt.Errorf("parse variables: %w", err)
				}
			}
			gql, err := a.newHandler(cmd.Context())
			if err != nil {
				return err
			}
			res := gql.Execute(cmd.Context(), handler.Request{Query: doc, OperationName: operation, Variables: vars}, nil)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "read the document from a file")
	cmd.Flags().StringVar(&variables, "variables", "", "variables as a JSON object")
	cmd.Flags().StringVar(&operation, "operation", "", "operation name")
	cmd.Flags().Bool("introspection", true, "enable GraphQL introspection")
	return cmd
}

func queryDocument(args []string, file string) (string, error) {
	switch {
	case file != "" && len(args) > 0:
		return "", fmt.Errorf("pass a document or --file, not both")
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return "", err
		}
		return string(b), nil
	case len(args) == 1:
		return args[0], nil
	}
	return "", fmt.Errorf("missing document")
}
