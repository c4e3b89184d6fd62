package storage

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
)

const (
	shortStemLen = 8
	shortExtLen  = 3
	// "~999" - самый длинный допустимый суффикс ревизии
	maxRevisionSuffix = 4
)

// ConvertTo83 строит короткое имя 8.3 для заданной ревизии.
// Пустая строка означает, что имя построить нельзя. Имя вида ".gcode" считается
// файлом без расширения.
func ConvertTo83(longFilename string, revision int) string {
	name := filepath.Base(longFilename)
	ext := filepath.Ext(name)
	stem := []rune(strings.TrimSuffix(name, ext))
	extension := []rune(strings.TrimPrefix(ext, "."))

	if len(stem) == 0 || len(extension) < shortExtLen {
		return ""
	}
	if len(extension) > shortExtLen {
		extension = extension[:shortExtLen]
	}

	for i, r := range stem {
		if r == ' ' || r == '.' {
			r = '_'
		}
		stem[i] = unicode.ToUpper(r)
	}
	for len(stem) < shortStemLen {
		stem = append(stem, '_')
	}
	stem = stem[:shortStemLen]

	for i, r := range extension {
		extension[i] = unicode.ToUpper(r)
	}
	suffix := "." + string(extension)

	switch {
	case revision == 0:
		return string(stem) + suffix
	case revision == 1:
		return string(stem[:shortStemLen-1]) + "~" + suffix
	}

	rev := fmt.Sprintf("~%d", revision-2)
	if len(rev) > maxRevisionSuffix {
		return ""
	}
	return string(stem[:shortStemLen-len(rev)]) + rev + suffix
}
