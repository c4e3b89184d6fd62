package storage

import (
	"bytes"
	"math"
	"regexp"
	"strconv"

	"github.com/iwtcode/shuiService/internal/domain/models"
	"github.com/iwtcode/shuiService/internal/middleware/logging"
)

var (
	progressMarker = []byte("M73 P")
	layerMarker    = []byte("M2033.1 L")
	heightMarker   = []byte(";Z:")

	leadingInt   = regexp.MustCompile(`^\s*([-+]?\d+)`)
	leadingFloat = regexp.MustCompile(`^\s*([-+]?\d*\.?\d+)`)
)

// forEachLine вызывает fn для каждой строки content вместе с позицией чтения после неё.
func forEachLine(content []byte, fn func(line []byte, next int64)) {
	pos := 0
	for pos < len(content) {
		end := bytes.IndexByte(content[pos:], '\n')
		var line []byte
		next := len(content)
		if end < 0 {
			line = content[pos:]
		} else {
			line = content[pos : pos+end]
			next = pos + end + 1
		}
		fn(bytes.TrimSuffix(line, []byte{'\r'}), int64(next))
		pos = next
	}
}

func parseLeadingInt(text []byte) (int64, bool) {
	m := leadingInt.FindSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseInt(string(m[1]), 10, 64)
	return v, err == nil
}

func parseLeadingFloat(text []byte) (float64, bool) {
	m := leadingFloat.FindSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(string(m[1]), 64)
	return v, err == nil
}

// ParseRuntimeIndex строит индекс прогресса по маркерам M73 P, M2033.1 L и ;Z:.
// Точка добавляется при каждом изменении тройки (процент, слой, высота),
// смещением считается позиция чтения после строки с маркером.
func ParseRuntimeIndex(content []byte, logger *logging.Logger) models.RuntimeIndex {
	var (
		index   models.RuntimeIndex
		state   models.RuntimeState
		skipped int
	)

	forEachLine(content, func(line []byte, next int64) {
		candidate := state

		switch {
		case bytes.HasPrefix(line, progressMarker):
			if v, ok := parseLeadingInt(line[len(progressMarker):]); ok {
				candidate.Percent = float64(v)
			} else {
				skipped++
			}
		case bytes.HasPrefix(line, layerMarker):
			if v, ok := parseLeadingInt(line[len(layerMarker):]); ok {
				candidate.Layer = v
			} else {
				skipped++
			}
		case bytes.HasPrefix(line, heightMarker):
			if v, ok := parseLeadingFloat(line[len(heightMarker):]); ok {
				candidate.Height = math.Round(v*10) / 10
			} else {
				skipped++
			}
		default:
			return
		}

		if candidate != state {
			state = candidate
			index.Append(next, state)
		}
	})

	if skipped > 0 {
		logger.Warn("Malformed progress markers skipped", "count", skipped)
	}
	return index
}
