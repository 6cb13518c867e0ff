package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/australsoft/folio/validate"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a value against the write-path validators",
		Long: `Check a value against the validators every write path runs.

On success the normalized form is printed: RUTs come out as NNNNNNNN-D
with an uppercase check digit, emails as trimmed lowercase. On failure
the command exits non-zero with the reason.`,
	}
	cmd.AddCommand(
		newValidateFieldCmd("rut", "Chilean RUT (mod-11 check digit)", "12.345.678-5", validate.RUT),
		newValidateFieldCmd("email", "email address", "ventas@frigorifico.cl", validate.Email),
		newValidateFieldCmd("phone", "E.164 phone number", "+56 9 8765 4321", validate.Phone),
		newValidateFieldCmd("url", "http(s) URL", "https://frigorifico.cl", validate.URL),
	)
	return cmd
}

func newValidateFieldCmd(name, what, example string, fn func(field, value string) (string, error)) *cobra.Command {
	return &cobra.Command{
		Use:     name + " <value>",
		Short:   "Validate a " + what,
		Example: fmt.Sprintf("  folio validate %s %q", name, example),
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// The validators pass empty input through for optional
			// fields; on the command line a value is always expected.
			value, err := validate.Required(name, args[0])
			if err != nil {
				return err
			}
			normalized, err := fn(name, value)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), normalized)
			return nil
		},
	}
}
