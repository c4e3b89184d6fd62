package storage

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iwtcode/shuiService/internal/middleware/logging"
)

func TestStorePersistenceRoundTrip(t *testing.T) {
	dir := t.TempDir()

	s, err := NewStore(dir, logging.Nop())
	require.NoError(t, err)

	content := "; total layers count = 2\n; nozzle_diameter = 0.4\n" +
		thumbnailBlockText("thumbnail", 16, 16, testPNG(t, 16, 16, color.White)) +
		"M73 P0\n;Z:0.2\nM2033.1 L1\nG1 X1\nM73 P50\n;Z:0.4\nM2033.1 L2\nM73 P100\n"

	saved, err := s.OnFileUploaded("round trip.gcode", []byte(content))
	require.NoError(t, err)
	require.NotZero(t, saved.Runtime.Len())

	require.FileExists(t, filepath.Join(dir, "files", saved.ShortName+".json"))
	require.FileExists(t, filepath.Join(dir, "metadata", saved.ContentHash+".json"))

	reloaded, err := NewStore(dir, logging.Nop())
	require.NoError(t, err)

	entry, ok := reloaded.Entry("round trip.gcode")
	require.True(t, ok)
	require.Equal(t, saved.ShortName, entry.ShortName)
	require.Equal(t, saved.LongFilename, entry.LongFilename)
	require.Equal(t, saved.ContentHash, entry.ContentHash)
	require.Equal(t, saved.Runtime, entry.Runtime)
	require.Equal(t, saved.Metadata, entry.Metadata)

	long, ok := reloaded.GetLongFilename(saved.ShortName)
	require.True(t, ok)
	require.Equal(t, "round trip.gcode", long)
}

func TestStoreSkipsCorruptFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "files"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "metadata"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "files", "BROKEN__.GCO.json"), []byte("{not json"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "metadata", "deadbeef.json"), []byte("[]]"), 0644))

	s, err := NewStore(dir, logging.Nop())
	require.NoError(t, err)
	require.Empty(t, s.StoredFiles())
}

func TestStoreReuploadDropsStaleMetadata(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir, logging.Nop())
	require.NoError(t, err)

	first, err := s.OnFileUploaded("model.gcode", []byte("M73 P1\n"))
	require.NoError(t, err)
	second, err := s.OnFileUploaded("model.gcode", []byte("M73 P2\n"))
	require.NoError(t, err)

	_, ok := s.GetMetadata(first.ContentHash)
	require.False(t, ok)
	require.NoFileExists(t, filepath.Join(dir, "metadata", first.ContentHash+".json"))

	hash, ok := s.GetContentHash("model.gcode")
	require.True(t, ok)
	require.Equal(t, second.ContentHash, hash)
	require.Len(t, s.StoredFiles(), 1)
}
