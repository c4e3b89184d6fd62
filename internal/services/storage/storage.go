package storage

import (
	"fmt"
	"sort"

	"github.com/zeebo/xxh3"

	"github.com/iwtcode/shuiService/internal/domain/models"
	"github.com/iwtcode/shuiService/internal/middleware/logging"
	apperrors "github.com/iwtcode/shuiService/pkg/errors"
)

// Store хранит соответствие длинных имен и имен 8.3, индексы прогресса
// и метаданные загруженных файлов.
//
// Store не синхронизирован: им владеет цикл принтера, а внешние вызовы
// проходят через Service.
type Store struct {
	root   string
	logger *logging.Logger

	files    map[string]*models.FileEntry   // 8.3 -> запись
	names    map[string]string              // 8.3 -> длинное имя, включая резервы
	shorts   map[string]string              // длинное имя -> 8.3
	metadata map[string]models.FileMetadata // хэш -> метаданные
}

// NewStore создает хранилище в каталоге root и загружает сохраненное состояние.
func NewStore(root string, logger *logging.Logger) (*Store, error) {
	s := &Store{
		root:     root,
		logger:   logger,
		files:    make(map[string]*models.FileEntry),
		names:    make(map[string]string),
		shorts:   make(map[string]string),
		metadata: make(map[string]models.FileMetadata),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// ContentHash возвращает хэш содержимого файла.
func ContentHash(content []byte) string {
	return fmt.Sprintf("%016x", xxh3.Hash(content))
}

// Make83 возвращает имя 8.3 для длинного имени, резервируя новое при первом обращении.
func (s *Store) Make83(longFilename string) (string, error) {
	if short, ok := s.shorts[longFilename]; ok {
		return short, nil
	}

	for revision := 0; ; revision++ {
		short := ConvertTo83(longFilename, revision)
		if short == "" {
			if revision == 0 {
				return "", fmt.Errorf("%q: %w", longFilename, apperrors.ErrInvalidExtension)
			}
			return "", fmt.Errorf("%q: %w", longFilename, apperrors.ErrNameExhausted)
		}
		if _, taken := s.names[short]; taken {
			continue
		}
		s.names[short] = longFilename
		s.shorts[longFilename] = short
		return short, nil
	}
}

// Release снимает резерв имени, если файл так и не был проиндексирован.
func (s *Store) Release(longFilename string) {
	short, ok := s.shorts[longFilename]
	if !ok {
		return
	}
	if _, indexed := s.files[short]; indexed {
		return
	}
	delete(s.shorts, longFilename)
	delete(s.names, short)
}

// Commit сохраняет индекс загруженного файла. hash и meta относятся к исходному
// содержимому, runtime построен по байтам, которые получил принтер.
func (s *Store) Commit(longFilename, hash string, runtime models.RuntimeIndex, meta models.FileMetadata) (*models.FileEntry, error) {
	short, err := s.Make83(longFilename)
	if err != nil {
		return nil, err
	}

	if old, ok := s.files[short]; ok && old.ContentHash != hash && !s.hashInUse(old.ContentHash, short) {
		delete(s.metadata, old.ContentHash)
		s.removeMetadata(old.ContentHash)
	}

	entry := &models.FileEntry{
		ShortName:    short,
		LongFilename: longFilename,
		ContentHash:  hash,
		Runtime:      runtime,
		Metadata:     map[string]models.FileMetadata{hash: meta},
	}
	s.files[short] = entry
	s.metadata[hash] = meta

	if err := s.saveMetadata(hash, meta); err != nil {
		s.logger.Error("Failed to save metadata", "hash", hash, "error", err)
	}
	if err := s.saveEntry(entry); err != nil {
		s.logger.Error("Failed to save file entry", "file", short, "error", err)
		return entry, err
	}

	s.logger.Info("File indexed", "file", longFilename, "short", short, "hash", hash, "runtime_points", entry.Runtime.Len())
	return entry, nil
}

// OnFileUploaded индексирует содержимое, полученное принтером без изменений.
func (s *Store) OnFileUploaded(longFilename string, content []byte) (*models.FileEntry, error) {
	meta := ParseMetadata(content, s.logger)
	return s.Commit(longFilename, ContentHash(content), ParseRuntimeIndex(content, s.logger), meta)
}

func (s *Store) hashInUse(hash, except string) bool {
	for short, entry := range s.files {
		if short != except && entry.ContentHash == hash {
			return true
		}
	}
	return false
}

// GetLongFilename возвращает длинное имя по имени 8.3.
func (s *Store) GetLongFilename(short string) (string, bool) {
	long, ok := s.names[short]
	return long, ok
}

// Get83Filename возвращает имя 8.3 по длинному имени.
func (s *Store) Get83Filename(longFilename string) (string, bool) {
	short, ok := s.shorts[longFilename]
	return short, ok
}

// GetRuntimeData возвращает индекс прогресса файла.
func (s *Store) GetRuntimeData(longFilename string) (*models.RuntimeIndex, bool) {
	entry := s.entry(longFilename)
	if entry == nil {
		return nil, false
	}
	return &entry.Runtime, true
}

// GetContentHash возвращает хэш содержимого последней загрузки файла.
func (s *Store) GetContentHash(longFilename string) (string, bool) {
	entry := s.entry(longFilename)
	if entry == nil {
		return "", false
	}
	return entry.ContentHash, true
}

// GetMetadata возвращает метаданные по хэшу содержимого.
func (s *Store) GetMetadata(hash string) (models.FileMetadata, bool) {
	meta, ok := s.metadata[hash]
	return meta, ok
}

// Entry возвращает запись файла по длинному имени.
func (s *Store) Entry(longFilename string) (*models.FileEntry, bool) {
	entry := s.entry(longFilename)
	return entry, entry != nil
}

func (s *Store) entry(longFilename string) *models.FileEntry {
	short, ok := s.shorts[longFilename]
	if !ok {
		return nil
	}
	return s.files[short]
}

// StoredFiles возвращает проиндексированные файлы, отсортированные по имени 8.3.
func (s *Store) StoredFiles() []models.FileInfo {
	out := make([]models.FileInfo, 0, len(s.files))
	for short, entry := range s.files {
		info := models.FileInfo{
			ShortName:    short,
			LongFilename: entry.LongFilename,
			ContentHash:  entry.ContentHash,
		}
		if meta, ok := s.metadata[entry.ContentHash]; ok {
			m := meta
			info.Metadata = &m
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ShortName < out[j].ShortName })
	return out
}
