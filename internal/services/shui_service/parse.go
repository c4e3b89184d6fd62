package shui_service

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/iwtcode/shuiService/internal/domain/models"
)

const (
	BedTemperatureTolerance      = 6
	ExtruderTemperatureTolerance = 10

	notSDPrinting     = "Not SD printing"
	currentFilePrefix = "Current file: "
	noFileSelected    = "(no file)"
)

var (
	extruderTemperature = regexp.MustCompile(`T0:\s*(-?\d+(?:\.\d+)?)\s*/\s*(-?\d+(?:\.\d+)?)`)
	bedTemperature      = regexp.MustCompile(`B:\s*(-?\d+(?:\.\d+)?)\s*/\s*(-?\d+(?:\.\d+)?)`)
	sdPrintingBytes     = regexp.MustCompile(`SD printing byte (\d+)\s*/\s*(\d+)`)
	feedRatePercent     = regexp.MustCompile(`FR:\s*(\d+)\s*%`)
)

func atTarget(current, target, tolerance float64) bool {
	return target == 0 || math.Abs(current-target) <= tolerance
}

func heatersAtTarget(s *models.PrinterState) bool {
	return atTarget(s.BedTemperature, s.TargetBedTemperature, BedTemperatureTolerance) &&
		atTarget(s.ExtruderTemperature, s.TargetExtruderTemperature, ExtruderTemperatureTolerance)
}

// isHeating: оба нагревателя включены и ни один еще не вышел на цель.
func isHeating(s *models.PrinterState) bool {
	return s.TargetBedTemperature != 0 && s.TargetExtruderTemperature != 0 &&
		!atTarget(s.BedTemperature, s.TargetBedTemperature, BedTemperatureTolerance) &&
		!atTarget(s.ExtruderTemperature, s.TargetExtruderTemperature, ExtruderTemperatureTolerance)
}

// parseTemperaturePair возвращает округленные текущую и целевую температуру.
func parseTemperaturePair(re *regexp.Regexp, line string) (float64, float64, bool) {
	m := re.FindStringSubmatch(line)
	if m == nil {
		return 0, 0, false
	}
	current, err1 := strconv.ParseFloat(m[1], 64)
	target, err2 := strconv.ParseFloat(m[2], 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return math.Round(current), math.Round(target), true
}

// applyTemperatures обновляет температуры из служебной строки.
func applyTemperatures(s *models.PrinterState, line string) bool {
	changed := false
	if cur, target, ok := parseTemperaturePair(extruderTemperature, line); ok {
		changed = changed || s.ExtruderTemperature != cur || s.TargetExtruderTemperature != target
		s.ExtruderTemperature, s.TargetExtruderTemperature = cur, target
	}
	if cur, target, ok := parseTemperaturePair(bedTemperature, line); ok {
		changed = changed || s.BedTemperature != cur || s.TargetBedTemperature != target
		s.BedTemperature, s.TargetBedTemperature = cur, target
	}
	return changed
}

func setStatus(p *models.PrintState, status models.PrintStatus) bool {
	if p.Status == status {
		return false
	}
	p.Status = status
	return true
}

// parseSDProgress разбирает "SD printing byte <cur>/<target>".
func parseSDProgress(text string) (int64, int64, bool) {
	m := sdPrintingBytes.FindStringSubmatch(text)
	if m == nil {
		return 0, 0, false
	}
	current, err1 := strconv.ParseInt(m[1], 10, 64)
	target, err2 := strconv.ParseInt(m[2], 10, 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return current, target, true
}

// parseSelectedFile возвращает имя из "Current file: <name>".
func parseSelectedFile(text string) (string, bool) {
	i := strings.Index(text, currentFilePrefix)
	if i < 0 {
		return "", false
	}
	name := text[i+len(currentFilePrefix):]
	if j := strings.IndexByte(name, '\n'); j >= 0 {
		name = name[:j]
	}
	return strings.TrimSpace(name), true
}

func parseFeedRate(text string) (int64, bool) {
	m := feedRatePercent.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseInt(m[1], 10, 64)
	return v, err == nil
}

// normalizeMessage обрезает сообщение для экрана до первой строки.
func normalizeMessage(message string) (string, bool) {
	if i := strings.IndexByte(message, '\n'); i >= 0 {
		return message[:i], true
	}
	return message, false
}
