/*
Copyright © 2022 Morgan Gangwere <morgan.gangwere@gmail.com>
*/
package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newCatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cat archive.phar name",
		Short: "Write one file from a PHAR archive to stdout",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, err := newReader(cmd).OpenFile(args[0])
			if err != nil {
				return errors.Wrap(err, args[0])
			}

			entry, ok := archive.GetFile(args[1])
			if !ok {
				return errors.Errorf("%s: no file named %q", args[0], args[1])
			}

			_, err = cmd.OutOrStdout().Write(entry.Content)
			return err
		},
	}
}
