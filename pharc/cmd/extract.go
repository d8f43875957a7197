/*
Copyright © 2022 Morgan Gangwere <morgan.gangwere@gmail.com>
*/
package cmd

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/indrora/phar/phar/format"
	"github.com/pkg/errors"
	"github.com/pkg/xattr"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const metadataXattr = "user.phar.metadata"

var errUnsafePath = errors.New("entry path escapes the destination")

func newExtractCmd() *cobra.Command {
	extractCmd := &cobra.Command{
		Use:   "extract archive.phar [dir]",
		Short: "Unwrap a PHAR archive",
		Long:  `Unwrap a given archive to the given path (default ".")`,
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runExtract,
	}

	extractCmd.Flags().Bool("xattr", false, "Store entry metadata in the "+metadataXattr+" extended attribute")
	return extractCmd
}

func runExtract(cmd *cobra.Command, args []string) error {
	withXattr, _ := cmd.Flags().GetBool("xattr")

	dest := "."
	if len(args) == 2 {
		dest = args[1]
	}

	archive, err := newReader(cmd).OpenFile(args[0])
	if err != nil {
		return errors.Wrap(err, args[0])
	}

	plan, err := planExtraction(dest, archive.Manifest.Entries())
	if err != nil {
		return err
	}

	for _, item := range plan {
		if err = extractEntry(item.target, item.entry); err != nil {
			return err
		}
		if withXattr && len(item.entry.Metadata) > 0 {
			if err = xattr.Set(item.target, metadataXattr, item.entry.Metadata); err != nil {
				logrus.WithError(err).WithField("path", item.target).Warn("could not store entry metadata")
			}
		}
		logrus.WithField("path", item.target).Debug("extracted")
	}
	return nil
}

type extraction struct {
	target string
	entry  *format.Entry
}

// planExtraction resolves every entry before anything touches the disk.
// Directories come first so their files have somewhere to go. A file wins
// over a directory of the same name, as in Manifest.Get, and anything that
// would have to live underneath a file is skipped.
func planExtraction(dest string, entries []format.Entry) ([]extraction, error) {
	files := make(map[string]bool)
	for i := range entries {
		target, err := extractPath(dest, entries[i].Name)
		if err != nil {
			return nil, err
		}
		if entries[i].IsFile() {
			files[target] = true
		}
	}

	plan := make([]extraction, 0, len(entries))
	for _, pass := range []format.EntryKind{format.KIND_DIRECTORY, format.KIND_FILE} {
		for i := range entries {
			entry := &entries[i]
			if entry.Kind() != pass {
				continue
			}
			target, _ := extractPath(dest, entry.Name)

			if entry.IsDir() && files[target] {
				logrus.WithField("path", target).Warn("skipping directory shadowed by a file of the same name")
				continue
			}
			if parent := fileAncestor(dest, target, files); parent != "" {
				logrus.WithFields(logrus.Fields{
					"path": target,
					"file": parent,
				}).Warn("skipping entry nested under a file")
				continue
			}
			plan = append(plan, extraction{target: target, entry: entry})
		}
	}
	return plan, nil
}

// fileAncestor returns the first parent of target, below dest, that is
// extracted as a file.
func fileAncestor(dest string, target string, files map[string]bool) string {
	root := filepath.Clean(dest)
	for dir := filepath.Dir(target); dir != root && dir != filepath.Dir(dir); dir = filepath.Dir(dir) {
		if files[dir] {
			return dir
		}
	}
	return ""
}

// extractPath resolves name under dest, refusing anything that would land
// outside of it.
func extractPath(dest string, name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", errors.Wrap(errUnsafePath, name)
	}
	return filepath.Join(dest, clean), nil
}

func extractEntry(target string, entry *format.Entry) error {
	if entry.IsDir() {
		if err := os.MkdirAll(target, permOr(entry, 0755)|0700); err != nil {
			return errors.Wrapf(err, "failed to create %s", target)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return errors.Wrapf(err, "failed to create parent of %s", target)
	}
	if err := os.WriteFile(target, entry.Content, permOr(entry, 0644)); err != nil {
		return errors.Wrapf(err, "failed to write %s", target)
	}
	if entry.Timestamp != 0 {
		mtime := entry.ModTime()
		if err := os.Chtimes(target, mtime, mtime); err != nil {
			return errors.Wrapf(err, "failed to set times on %s", target)
		}
	}
	return nil
}

func permOr(entry *format.Entry, fallback fs.FileMode) fs.FileMode {
	if perm := entry.Perm(); perm != 0 {
		return fs.FileMode(perm)
	}
	return fallback
}
