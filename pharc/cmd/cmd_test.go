package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/indrora/phar/internal/phartest"
	"github.com/indrora/phar/phar/format"
	"github.com/indrora/phar/phar/report"
	"github.com/pkg/xattr"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func writeArchive(t *testing.T) string {
	t.Helper()

	w := phartest.NewWriter()
	w.Alias = "app.phar"
	w.Signature = format.SIGNATURE_SHA256
	w.AppendDirectory("src").
		Append(phartest.File{Name: "src/main.php", Content: []byte("<?php echo 'main';"), Perm: 0640, Timestamp: 1600000000, Metadata: []byte("s:4:\"main\";")}).
		Append(phartest.File{Name: "README", Content: bytes.Repeat([]byte("readme "), 50), Compression: format.COMPRESSION_GZ, Perm: 0644})

	path := filepath.Join(t.TempDir(), "app.phar")
	require.NoError(t, os.WriteFile(path, w.MustBytes(t), 0644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	out := new(bytes.Buffer)
	root.SetOut(out)
	root.SetErr(new(bytes.Buffer))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestInspect(t *testing.T) {
	path := writeArchive(t)

	out, err := run(t, "inspect", "--verify-signature", "--digest", path)
	require.NoError(t, err)
	require.Contains(t, out, "Version: 1.1.1")
	require.Contains(t, out, "Alias: app.phar")
	require.Contains(t, out, "Signature: SHA256")
	require.Contains(t, out, "(verified)")
	require.Contains(t, out, "Entries: 3")
	require.Contains(t, out, "src/main.php")
	require.Contains(t, out, "deflate")
}

func TestInspectCBOR(t *testing.T) {
	path := writeArchive(t)
	summaryPath := filepath.Join(t.TempDir(), "summary.cbor")

	_, err := run(t, "inspect", "--cbor", summaryPath, path)
	require.NoError(t, err)

	f, err := os.Open(summaryPath)
	require.NoError(t, err)
	defer f.Close()

	summary, err := report.Decode(f)
	require.NoError(t, err)
	require.Equal(t, path, summary.Source)
	require.Len(t, summary.Entries, 3)
	require.Equal(t, "src", summary.Entries[0].Name)
	require.True(t, summary.Entries[0].Directory)
}

func TestInspectRejectsZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.zip")
	require.NoError(t, os.WriteFile(path, []byte{0x50, 0x4B, 0x03, 0x04, 0, 0}, 0644))

	_, err := run(t, "inspect", path)
	require.ErrorIs(t, err, format.ErrUnsupportedContainer)
}

func TestCat(t *testing.T) {
	path := writeArchive(t)

	out, err := run(t, "cat", path, "SRC/MAIN.PHP")
	require.NoError(t, err)
	require.Equal(t, "<?php echo 'main';", out)

	_, err = run(t, "cat", path, "src")
	require.Error(t, err)
}

func TestExtract(t *testing.T) {
	path := writeArchive(t)
	dest := t.TempDir()

	_, err := run(t, "extract", "--verify-crc", "--xattr", path, dest)
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(dest, "src"))
	require.NoError(t, err)
	require.True(t, info.IsDir())

	mainPath := filepath.Join(dest, "src", "main.php")
	content, err := os.ReadFile(mainPath)
	require.NoError(t, err)
	require.Equal(t, "<?php echo 'main';", string(content))

	info, err = os.Stat(mainPath)
	require.NoError(t, err)
	require.Equal(t, int64(1600000000), info.ModTime().Unix())

	readme, err := os.ReadFile(filepath.Join(dest, "README"))
	require.NoError(t, err)
	require.Equal(t, bytes.Repeat([]byte("readme "), 50), readme)

	// not every filesystem supports user xattrs
	if meta, err := xattr.Get(mainPath, metadataXattr); err == nil {
		require.Equal(t, "s:4:\"main\";", string(meta))
	}
}

func writeRaw(t *testing.T, w *phartest.ArchiveWriter) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "raw.phar")
	require.NoError(t, os.WriteFile(path, w.MustBytes(t), 0644))
	return path
}

func TestExtractFileShadowsDirectory(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	path := writeRaw(t, phartest.NewWriter().
		AppendDirectory("x").
		AppendFile("x", "file").
		AppendFile("x/y", "nested").
		AppendFile("z", "zed"))
	dest := t.TempDir()

	_, err := run(t, "extract", path, dest)
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(dest, "x"))
	require.NoError(t, err)
	require.Equal(t, "file", string(content))

	content, err = os.ReadFile(filepath.Join(dest, "z"))
	require.NoError(t, err)
	require.Equal(t, "zed", string(content))

	warnings := 0
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel {
			warnings++
		}
	}
	require.Equal(t, 2, warnings)
}

func TestExtractChecksPathsBeforeWriting(t *testing.T) {
	path := writeRaw(t, phartest.NewWriter().
		AppendFile("ok.php", "ok").
		AppendFile("../evil.php", "evil"))
	dest := t.TempDir()

	_, err := run(t, "extract", path, dest)
	require.ErrorIs(t, err, errUnsafePath)

	left, err := os.ReadDir(dest)
	require.NoError(t, err)
	require.Empty(t, left)
}

func TestExtractPath(t *testing.T) {
	testCases := []struct {
		name string
		ok   bool
	}{
		{name: "a/b.php", ok: true},
		{name: "./a", ok: true},
		{name: "a/../b", ok: true},
		{name: "../evil", ok: false},
		{name: "a/../../evil", ok: false},
		{name: "..", ok: false},
		{name: "/etc/passwd", ok: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := extractPath("/tmp/out", tc.name)
			if tc.ok {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, errUnsafePath)
			}
		})
	}
}

func TestDocs(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, "docs", dir)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "pharc_inspect.md"))
	require.NoError(t, err)
}
