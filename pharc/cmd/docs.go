/*
Copyright © 2022 Morgan Gangwere <morgan.gangwere@gmail.com>
*/
package cmd

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

func newDocsCmd(rootCmd *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:    "docs [dir]",
		Short:  "Generate markdown documentation for pharc",
		Args:   cobra.MaximumNArgs(1),
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "./docs/pharc"
			if len(args) == 1 {
				dir = args[0]
			}
			if err := os.MkdirAll(dir, 0775); err != nil {
				return errors.Wrap(err, "failed to make docs dir")
			}
			rootCmd.DisableAutoGenTag = true
			if err := doc.GenMarkdownTree(rootCmd, dir); err != nil {
				return errors.Wrap(err, "failed to make docs")
			}
			return nil
		},
	}
}
