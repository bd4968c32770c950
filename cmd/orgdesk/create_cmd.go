package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kingrea/orgdesk/internal/navigation"
	"github.com/kingrea/orgdesk/internal/orgform"
	"github.com/kingrea/orgdesk/internal/routepath"
)

func newCreateCmd(root *rootOptions) *cobra.Command {
	var fields orgform.Fields
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an organization without opening the TUI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := orgform.Validate(fields); err != nil {
				return withCode(exitValidation, err)
			}
			sess, err := openSession(root)
			if err != nil {
				return err
			}
			defer sess.Close()
			client, err := sess.client(root, "")
			if err != nil {
				return err
			}

			router := navigation.NewRouter(routepath.OrganizationsNew)
			controller := orgform.New(client, router, orgform.WithLogger(sess.logbook))
			outcome := controller.Submit(cmd.Context(), fields)
			if !outcome.OK() {
				return withCode(exitFailure, errors.New(outcome.Message()))
			}
			sess.logbook.Info("Organization created from the command line · %s", outcome)
			fmt.Fprintln(cmd.OutOrStdout(), router.Current().Path)
			return nil
		},
	}
	cmd.Flags().StringVar(&fields.Name, "name", "", "organization name")
	cmd.Flags().StringVar(&fields.ContactName, "contact-name", "", "contact person")
	cmd.Flags().StringVar(&fields.ContactEmail, "contact-email", "", "contact email address")
	return cmd
}
