/*
Copyright © 2022 Morgan Gangwere <morgan.gangwere@gmail.com>
*/
package cmd

import (
	"os"

	"github.com/indrora/phar/phar/reader"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// newRootCmd builds the base command with every subcommand attached.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pharc",
		Short: "pharc reads PHAR archives",
		Long: `pharc inspects and unpacks PHAR archives without running PHP.

Archives wrapped in zip, gzip or bzip2 containers are not supported.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logrus.SetOutput(cmd.ErrOrStderr())
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				logrus.SetLevel(logrus.DebugLevel)
			} else {
				logrus.SetLevel(logrus.InfoLevel)
			}
		},
	}

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Write detailed information to the terminal")
	rootCmd.PersistentFlags().Bool("verify-crc", false, "Check every entry against its stored CRC32")
	rootCmd.PersistentFlags().Bool("verify-signature", false, "Recompute the digest of signed archives")

	rootCmd.AddCommand(newInspectCmd(), newCatCmd(), newExtractCmd(), newDocsCmd(rootCmd))
	return rootCmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newReader builds a reader from the persistent flags.
func newReader(cmd *cobra.Command) *reader.Reader {
	verifyCRC, _ := cmd.Flags().GetBool("verify-crc")
	verifySignature, _ := cmd.Flags().GetBool("verify-signature")

	return reader.NewReader(
		reader.WithVerifyCRC(verifyCRC),
		reader.WithVerifySignature(verifySignature),
		reader.WithLogger(logrus.StandardLogger()),
	)
}
