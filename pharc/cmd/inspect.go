/*
Copyright © 2022 Morgan Gangwere <morgan.gangwere@gmail.com>
*/
package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/indrora/phar/phar/report"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/blake2b"
)

func newInspectCmd() *cobra.Command {
	inspectCmd := &cobra.Command{
		Use:   "inspect archive.phar...",
		Short: "Investigate the contents of a PHAR archive",
		Long: `Investigate and show the structure of a PHAR archive,
including its manifest, signature and every entry.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runInspect,
	}

	inspectCmd.Flags().Bool("dump", false, "Dump the parsed archive structure")
	inspectCmd.Flags().Bool("digest", false, "Show a BLAKE2b-256 digest of every file")
	inspectCmd.Flags().String("cbor", "", "Write a CBOR summary to this path (- for stdout)")
	return inspectCmd
}

func runInspect(cmd *cobra.Command, args []string) error {
	dump, _ := cmd.Flags().GetBool("dump")
	withDigest, _ := cmd.Flags().GetBool("digest")
	cborPath, _ := cmd.Flags().GetString("cbor")

	var digest report.DigestFunc
	if withDigest {
		digest = blake2bDigest
	}

	var cborOut io.Writer
	switch cborPath {
	case "":
	case "-":
		cborOut = cmd.OutOrStdout()
	default:
		f, err := os.Create(cborPath)
		if err != nil {
			return errors.Wrap(err, "failed to create summary file")
		}
		defer f.Close()
		cborOut = f
	}

	r := newReader(cmd)
	for _, filename := range args {
		archive, err := r.OpenFile(filename)
		if err != nil {
			return errors.Wrap(err, filename)
		}

		summary := report.Summarize(archive, digest)
		if cborOut != nil {
			if err = summary.Encode(cborOut); err != nil {
				return err
			}
			continue
		}

		explainArchive(cmd.OutOrStdout(), summary)
		if dump {
			spew.Fdump(cmd.OutOrStdout(), archive)
		}
	}
	return nil
}

func explainArchive(out io.Writer, summary *report.ArchiveSummary) {
	fmt.Fprintln(out, summary.Source)
	fmt.Fprintf(out, "======Archive======\n")
	fmt.Fprintf(out, "Stub: %d bytes\n", summary.StubLength)
	fmt.Fprintf(out, "Version: %s\n", summary.Version)
	fmt.Fprintf(out, "Flags: 0x%08x\n", summary.Flags)
	if summary.Alias != nil {
		fmt.Fprintf(out, "Alias: %s\n", *summary.Alias)
	}
	fmt.Fprintf(out, "Metadata: %d bytes\n", len(summary.Metadata))
	if sig := summary.Signature; sig != nil {
		state := "not verified"
		if sig.Verified {
			state = "verified"
		}
		fmt.Fprintf(out, "Signature: %s %x (%s)\n", sig.Algorithm, sig.Hash, state)
	}
	fmt.Fprintf(out, "Entries: %d\n", len(summary.Entries))

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, e := range summary.Entries {
		kind := "file"
		if e.Directory {
			kind = "dir"
		}
		fmt.Fprintf(tw, "  %s\t%04o\t%s\t%d/%d\t%s\t%s",
			kind, e.Perm, e.Compression, e.CompressedSize, e.UncompressedSize,
			e.ModTime.Format(time.RFC3339), e.Name)
		if e.Digest != nil {
			fmt.Fprintf(tw, "\t%x", e.Digest)
		}
		fmt.Fprintln(tw)
	}
	tw.Flush()
}

func blake2bDigest(content []byte) []byte {
	sum := blake2b.Sum256(content)
	return sum[:]
}
