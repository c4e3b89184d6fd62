package models

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"time"
)

// RuntimeState - прогресс печати, записанный слайсером внутри файла.
type RuntimeState struct {
	Percent float64 `json:"percent"`
	Layer   int64   `json:"layer"`
	Height  float64 `json:"height"`
}

// RuntimeIndex сопоставляет смещение в файле с прогрессом печати.
// Offsets упорядочены по возрастанию, States[i] действует начиная с Offsets[i].
type RuntimeIndex struct {
	Offsets []int64        `json:"offsets"`
	States  []RuntimeState `json:"states"`
}

// Append добавляет новую точку индекса.
func (r *RuntimeIndex) Append(offset int64, state RuntimeState) {
	r.Offsets = append(r.Offsets, offset)
	r.States = append(r.States, state)
}

// Len возвращает количество точек индекса.
func (r *RuntimeIndex) Len() int {
	if r == nil {
		return 0
	}
	return len(r.States)
}

// GetStateNear возвращает состояние, ближайшее к количеству напечатанных байт.
func (r *RuntimeIndex) GetStateNear(printedByte int64) RuntimeState {
	if r == nil || len(r.States) == 0 {
		return RuntimeState{}
	}
	if printedByte == 0 {
		return r.States[0]
	}
	for i, offset := range r.Offsets {
		if offset < printedByte {
			continue
		}
		if i >= len(r.States) {
			break
		}
		return r.States[i]
	}
	return r.States[len(r.States)-1]
}

// Preview - миниатюра, встроенная слайсером в gcode.
// Data хранит исходные байты изображения (PNG/JPEG).
type Preview struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
	Data   []byte `json:"data"`
}

// Decode декодирует изображение миниатюры.
func (p Preview) Decode() (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(p.Data))
	return img, err
}

// Pixels возвращает площадь миниатюры.
func (p Preview) Pixels() int {
	return p.Width * p.Height
}

// FileMetadata - описательные данные gcode файла, кэшируемые по хэшу содержимого.
type FileMetadata struct {
	BytesSize          int64         `json:"bytes_size"`
	Previews           []Preview     `json:"previews"`
	EstimatedPrintTime time.Duration `json:"estimated_print_time"`
	Layers             int64         `json:"layers"`
	Height             float64       `json:"height"`
	NozzleDiameter     float64       `json:"nozzle_diameter"`
	EnableSupports     bool          `json:"enable_supports"`
	ToolChanges        int64         `json:"tool_changes"`
	Objects            int64         `json:"objects"`
}

// LargestPreview возвращает миниатюру с наибольшей площадью.
func (m *FileMetadata) LargestPreview() (Preview, bool) {
	if m == nil || len(m.Previews) == 0 {
		return Preview{}, false
	}
	best := m.Previews[0]
	for _, p := range m.Previews[1:] {
		if p.Pixels() > best.Pixels() {
			best = p
		}
	}
	return best, true
}

// FileEntry - файл, загруженный на принтер, под своим 8.3 именем.
type FileEntry struct {
	ShortName    string                  `json:"short_name"`
	LongFilename string                  `json:"long_filename"`
	ContentHash  string                  `json:"content_hash"`
	Runtime      RuntimeIndex            `json:"runtime"`
	Metadata     map[string]FileMetadata `json:"-"`
}

// FileInfo - представление файла для внешних потребителей.
type FileInfo struct {
	ShortName    string        `json:"short_name"`
	LongFilename string        `json:"long_filename"`
	ContentHash  string        `json:"content_hash"`
	Metadata     *FileMetadata `json:"metadata,omitempty"`
}
