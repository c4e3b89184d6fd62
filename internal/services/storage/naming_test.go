package storage

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iwtcode/shuiService/internal/middleware/logging"
	apperrors "github.com/iwtcode/shuiService/pkg/errors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), logging.Nop())
	require.NoError(t, err)
	return s
}

func TestConvertTo83(t *testing.T) {
	cases := []struct {
		name     string
		revision int
		want     string
	}{
		{"test file name.gcode", 0, "TEST_FIL.GCO"},
		{"test file name.gcode", 1, "TEST_FI~.GCO"},
		{"test file name.gcode", 2, "TEST_F~0.GCO"},
		{"test file name.gcode", 12, "TEST_~10.GCO"},
		{"test file name.gcode", 1001, "TEST~999.GCO"},
		{"test file name.gcode", 1002, ""},
		{"benchy.gco", 0, "BENCHY__.GCO"},
		{"v1.2 part.gcode", 0, "V1_2_PAR.GCO"},
		{"dir/cube.gcode", 0, "CUBE____.GCO"},
		{"cube.g", 0, ""},
		{"cube", 0, ""},
		{".gcode", 0, ""},
		{"dir/.gcode", 0, ""},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s@%d", tc.name, tc.revision), func(t *testing.T) {
			assert.Equal(t, tc.want, ConvertTo83(tc.name, tc.revision))
		})
	}
}

func TestMake83Collision(t *testing.T) {
	s := newTestStore(t)

	first, err := s.Make83("test file name.gcode")
	require.NoError(t, err)
	second, err := s.Make83("test file name2.gcode")
	require.NoError(t, err)

	require.Equal(t, "TEST_FIL.GCO", first)
	require.Equal(t, "TEST_FI~.GCO", second)

	again, err := s.Make83("test file name.gcode")
	require.NoError(t, err)
	require.Equal(t, first, again, "имя 8.3 должно быть стабильным")
}

func TestMake83Injective(t *testing.T) {
	s := newTestStore(t)
	seen := make(map[string]string)

	for i := 0; i < 50; i++ {
		long := fmt.Sprintf("long model name %02d.gcode", i)
		short, err := s.Make83(long)
		require.NoError(t, err)
		prev, dup := seen[short]
		require.False(t, dup, "%s и %s получили одно имя %s", prev, long, short)
		seen[short] = long
	}
}

func TestMake83StableAcrossUploads(t *testing.T) {
	s := newTestStore(t)

	e1, err := s.OnFileUploaded("model.gcode", []byte("G28\nM73 P10\n"))
	require.NoError(t, err)
	_, err = s.Make83("model2.gcode")
	require.NoError(t, err)
	e2, err := s.OnFileUploaded("model.gcode", []byte("G28\nM73 P20\n"))
	require.NoError(t, err)

	require.Equal(t, e1.ShortName, e2.ShortName)
	require.NotEqual(t, e1.ContentHash, e2.ContentHash)
}

func TestMake83Errors(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Make83("model.gc")
	require.ErrorIs(t, err, apperrors.ErrInvalidExtension)

	for i := 0; i < 1002; i++ {
		_, err := s.Make83(fmt.Sprintf("collision %04d.gcode", i))
		require.NoError(t, err)
	}
	_, err = s.Make83("collision last.gcode")
	require.ErrorIs(t, err, apperrors.ErrNameExhausted)
}

func TestReleaseFreesReservation(t *testing.T) {
	s := newTestStore(t)

	short, err := s.Make83("part.gcode")
	require.NoError(t, err)
	s.Release("part.gcode")

	_, ok := s.Get83Filename("part.gcode")
	require.False(t, ok)

	other, err := s.Make83("part.gcode.gcode")
	require.NoError(t, err)
	require.Equal(t, "PART_GCO.GCO", other)
	require.Equal(t, "PART____.GCO", short)
}

func TestReleaseKeepsIndexedFile(t *testing.T) {
	s := newTestStore(t)

	entry, err := s.OnFileUploaded("part.gcode", []byte("G28\n"))
	require.NoError(t, err)
	s.Release("part.gcode")

	short, ok := s.Get83Filename("part.gcode")
	require.True(t, ok)
	require.Equal(t, entry.ShortName, short)
}
