package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSetAPIURLCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set-api-url <url>",
		Short: "Save the organization service base URL to .orgdesk/config.yaml",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(root)
			if err != nil {
				return err
			}
			defer sess.Close()
			if err := sess.config.SetAPIBaseURL(args[0]); err != nil {
				return withCode(exitValidation, err)
			}
			sess.logbook.Info("Organization service set to %s", sess.config.Project.API.BaseURL)
			fmt.Fprintf(cmd.OutOrStdout(), "api.base_url = %s\n", sess.config.Project.API.BaseURL)
			return nil
		},
	}
}
