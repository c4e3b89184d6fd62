package storage

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"

	"github.com/cristalhq/base64"
	"golang.org/x/image/draw"

	"github.com/iwtcode/shuiService/internal/domain/models"
)

// Разрешения встроенного превью, в порядке записи в файл.
var shuiPreviewSizes = []int{200, 100}

const (
	shuiPreviewHeader = ";shui preview %dx%d\n"
	shuiPreviewFooter = ";shui preview end\n"
)

// PreprocessGCode добавляет в начало файла превью в формате принтера,
// построенные из самой крупной миниатюры. Без миниатюр content возвращается как есть.
func PreprocessGCode(content []byte, meta *models.FileMetadata) ([]byte, error) {
	preview, ok := meta.LargestPreview()
	if !ok {
		return content, nil
	}

	img, err := preview.Decode()
	if err != nil {
		return content, fmt.Errorf("decode %dx%d preview: %w", preview.Width, preview.Height, err)
	}

	var out bytes.Buffer
	for _, size := range shuiPreviewSizes {
		out.WriteString(EncodeShuiPreview(resize(img, size, size)))
	}
	out.Write(content)
	return out.Bytes(), nil
}

func resize(src image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// EncodeShuiPreview кодирует изображение построчно: RGB565 big-endian, каждая строка в base64.
func EncodeShuiPreview(img image.Image) string {
	b := img.Bounds()

	var out bytes.Buffer
	fmt.Fprintf(&out, shuiPreviewHeader, b.Dx(), b.Dy())

	row := make([]byte, 2*b.Dx())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			binary.BigEndian.PutUint16(row[2*(x-b.Min.X):], toRGB565(img.At(x, y)))
		}
		out.WriteByte(';')
		out.WriteString(base64.StdEncoding.EncodeToString(row))
		out.WriteByte('\n')
	}

	out.WriteString(shuiPreviewFooter)
	return out.String()
}

func toRGB565(c color.Color) uint16 {
	r, g, b, _ := c.RGBA()
	// RGBA() возвращает 16-битные каналы
	r8, g8, b8 := uint16(r>>8), uint16(g>>8), uint16(b>>8)
	return (r8>>3)<<11 | (g8>>2)<<5 | b8>>3
}
