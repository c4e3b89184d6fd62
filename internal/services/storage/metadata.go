package storage

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cristalhq/base64"

	"github.com/iwtcode/shuiService/internal/domain/models"
	"github.com/iwtcode/shuiService/internal/middleware/logging"
)

var (
	thumbnailBegin = regexp.MustCompile(`^thumbnail(?:_([A-Za-z]+))? begin\s+(\d+)x(\d+)`)
	thumbnailEnd   = regexp.MustCompile(`^thumbnail(?:_[A-Za-z]+)? end`)
	durationPart   = regexp.MustCompile(`(\d+)\s*([dhms])`)
)

// Ключи комментариев слайсеров (PrusaSlicer, OrcaSlicer, Bambu Studio).
var (
	layersKeys         = []string{"total layers count", "total layer number"}
	heightKeys         = []string{"max_layer_z", "max_z_height"}
	toolChangesKeys    = []string{"total toolchanges", "total filament change"}
	supportKeys        = []string{"enable_support", "support_material"}
	nozzleKeys         = []string{"nozzle_diameter"}
	estimatedTimeKeys  = []string{"estimated printing time (normal mode)", "estimated printing time"}
	printingObjectPref = "printing object "
)

type thumbnailBlock struct {
	format  string
	width   int
	height  int
	payload strings.Builder
}

// ParseMetadata извлекает миниатюры и поля слайсера из комментариев gcode.
// Некорректные поля пропускаются с записью в лог.
func ParseMetadata(content []byte, logger *logging.Logger) models.FileMetadata {
	meta := models.FileMetadata{BytesSize: int64(len(content))}
	objects := make(map[string]struct{})

	var block *thumbnailBlock

	forEachLine(content, func(raw []byte, _ int64) {
		if len(raw) == 0 || raw[0] != ';' {
			return
		}
		line := strings.TrimSpace(string(raw[1:]))

		if block != nil {
			if thumbnailEnd.MatchString(line) {
				if preview, ok := decodeThumbnail(block, logger); ok {
					meta.Previews = append(meta.Previews, preview)
				}
				block = nil
				return
			}
			block.payload.WriteString(line)
			return
		}

		if m := thumbnailBegin.FindStringSubmatch(line); m != nil {
			w, _ := strconv.Atoi(m[2])
			h, _ := strconv.Atoi(m[3])
			block = &thumbnailBlock{format: strings.ToLower(m[1]), width: w, height: h}
			return
		}

		if strings.HasPrefix(line, printingObjectPref) {
			objects[strings.TrimSpace(line[len(printingObjectPref):])] = struct{}{}
			return
		}

		key, value, ok := splitField(line)
		if !ok {
			return
		}
		applyField(&meta, key, value, logger)
	})

	if block != nil {
		logger.Warn("Unterminated thumbnail block skipped", "width", block.width, "height", block.height)
	}
	meta.Objects = int64(len(objects))
	return meta
}

// splitField разбирает "key = value" и "key: value".
func splitField(line string) (string, string, bool) {
	if i := strings.Index(line, " = "); i > 0 {
		return strings.ToLower(strings.TrimSpace(line[:i])), strings.TrimSpace(line[i+3:]), true
	}
	if i := strings.Index(line, ":"); i > 0 {
		return strings.ToLower(strings.TrimSpace(line[:i])), strings.TrimSpace(line[i+1:]), true
	}
	return "", "", false
}

func keyIn(key string, keys []string) bool {
	for _, k := range keys {
		if key == k {
			return true
		}
	}
	return false
}

func applyField(meta *models.FileMetadata, key, value string, logger *logging.Logger) {
	switch {
	case keyIn(key, layersKeys):
		if v, err := strconv.ParseInt(value, 10, 64); err == nil {
			meta.Layers = v
		} else {
			logger.Debug("Malformed layer count", "value", value, "error", err)
		}
	case keyIn(key, heightKeys):
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			meta.Height = v
		} else {
			logger.Debug("Malformed max height", "value", value, "error", err)
		}
	case keyIn(key, toolChangesKeys):
		if v, err := strconv.ParseInt(value, 10, 64); err == nil {
			meta.ToolChanges = v
		} else {
			logger.Debug("Malformed tool change count", "value", value, "error", err)
		}
	case keyIn(key, supportKeys):
		if v, err := strconv.ParseBool(value); err == nil {
			meta.EnableSupports = v
		} else {
			logger.Debug("Malformed supports flag", "value", value, "error", err)
		}
	case keyIn(key, nozzleKeys):
		first := strings.TrimSpace(strings.Split(value, ",")[0])
		if v, err := strconv.ParseFloat(first, 64); err == nil {
			meta.NozzleDiameter = v
		} else {
			logger.Debug("Malformed nozzle diameter", "value", value, "error", err)
		}
	case keyIn(key, estimatedTimeKeys):
		if d, ok := parseEstimatedTime(value); ok {
			meta.EstimatedPrintTime = d
		} else {
			logger.Debug("Malformed estimated print time", "value", value)
		}
	}
}

// parseEstimatedTime разбирает "1d 2h 3m 4s" и его сокращенные формы.
func parseEstimatedTime(value string) (time.Duration, bool) {
	parts := durationPart.FindAllStringSubmatch(value, -1)
	if len(parts) == 0 {
		return 0, false
	}

	var total time.Duration
	for _, p := range parts {
		n, err := strconv.ParseInt(p[1], 10, 64)
		if err != nil {
			return 0, false
		}
		unit := time.Second
		switch p[2] {
		case "d":
			unit = 24 * time.Hour
		case "h":
			unit = time.Hour
		case "m":
			unit = time.Minute
		}
		total += time.Duration(n) * unit
	}
	return total, true
}

func decodeThumbnail(block *thumbnailBlock, logger *logging.Logger) (models.Preview, bool) {
	data, err := base64.StdEncoding.DecodeString(block.payload.String())
	if err != nil {
		logger.Warn("Thumbnail payload is not valid base64", "width", block.width, "height", block.height, "error", err)
		return models.Preview{}, false
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		logger.Warn("Thumbnail image cannot be decoded", "format", block.format, "error", err)
		return models.Preview{}, false
	}

	return models.Preview{
		Width:  cfg.Width,
		Height: cfg.Height,
		Format: format,
		Data:   data,
	}, true
}
