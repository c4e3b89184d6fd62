package storage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iwtcode/shuiService/internal/domain/models"
	"github.com/iwtcode/shuiService/internal/middleware/logging"
)

func TestParseRuntimeIndex(t *testing.T) {
	content := "G28\n" + // 4
		"M73 P0\n" + // 11
		";Z:0.2\n" + // 18
		"M2033.1 L1\n" + // 29
		"G1 X10\n" + // 36
		"M73 P0\n" + // 43, без изменений
		";Z:0.44\n" + // 51
		"M73 P50 R10\n" + // 63
		"M73 Pxx\n" + // 71, некорректный маркер
		"M2033.1 L2\n" // 82

	idx := ParseRuntimeIndex([]byte(content), logging.Nop())

	require.Equal(t, []int64{18, 29, 51, 63, 82}, idx.Offsets)
	require.Equal(t, []models.RuntimeState{
		{Percent: 0, Layer: 0, Height: 0.2},
		{Percent: 0, Layer: 1, Height: 0.2},
		{Percent: 0, Layer: 1, Height: 0.4},
		{Percent: 50, Layer: 1, Height: 0.4},
		{Percent: 50, Layer: 2, Height: 0.4},
	}, idx.States)

	for i := 1; i < len(idx.Offsets); i++ {
		require.GreaterOrEqual(t, idx.Offsets[i], idx.Offsets[i-1])
	}
}

func TestGetStateNear(t *testing.T) {
	var empty models.RuntimeIndex
	require.Equal(t, models.RuntimeState{}, empty.GetStateNear(0))
	require.Equal(t, models.RuntimeState{}, empty.GetStateNear(100))

	idx := models.RuntimeIndex{}
	idx.Append(100, models.RuntimeState{Percent: 10, Layer: 1, Height: 0.2})
	idx.Append(200, models.RuntimeState{Percent: 20, Layer: 2, Height: 0.4})
	idx.Append(300, models.RuntimeState{Percent: 30, Layer: 3, Height: 0.6})

	require.Equal(t, idx.States[0], idx.GetStateNear(0))
	require.Equal(t, idx.States[0], idx.GetStateNear(50))
	require.Equal(t, idx.States[0], idx.GetStateNear(100))
	require.Equal(t, idx.States[1], idx.GetStateNear(101))
	require.Equal(t, idx.States[2], idx.GetStateNear(300))
	require.Equal(t, idx.States[2], idx.GetStateNear(10_000))
}
