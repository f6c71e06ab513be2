package main

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/spf13/cobra"

	"github.com/wagiedev/brainbridge/internal/message"
)

func newSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "schema",
		Short:       "Print the JSON Schemas of request and response lines",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			request, err := message.RequestSchema()
			if err != nil {
				return err
			}

			response, err := message.ResponseSchema()
			if err != nil {
				return err
			}

			data, err := json.MarshalIndent(map[string]*jsonschema.Schema{
				"request":  request,
				"response": response,
			}, "", "  ")
			if err != nil {
				return fmt.Errorf("encode schemas: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}
