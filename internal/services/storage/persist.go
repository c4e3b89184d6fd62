package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"

	"github.com/iwtcode/shuiService/internal/domain/models"
)

const (
	filesDirName    = "files"
	metadataDirName = "metadata"
)

func (s *Store) filesDir() string    { return filepath.Join(s.root, filesDirName) }
func (s *Store) metadataDir() string { return filepath.Join(s.root, metadataDirName) }

// writeJSON пишет файл через временный файл, чтобы не оставлять обрезанный JSON.
func writeJSON(path string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (s *Store) saveEntry(entry *models.FileEntry) error {
	return writeJSON(filepath.Join(s.filesDir(), entry.ShortName+".json"), entry)
}

func (s *Store) saveMetadata(hash string, meta models.FileMetadata) error {
	return writeJSON(filepath.Join(s.metadataDir(), hash+".json"), meta)
}

func (s *Store) removeMetadata(hash string) {
	if err := os.Remove(filepath.Join(s.metadataDir(), hash+".json")); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("Failed to remove stale metadata", "hash", hash, "error", err)
	}
}

// jsonFiles возвращает пары (имя без расширения, путь) для *.json в каталоге.
func jsonFiles(dir string) ([][2]string, error) {
	items, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out [][2]string
	for _, item := range items {
		if item.IsDir() || !strings.HasSuffix(item.Name(), ".json") {
			continue
		}
		out = append(out, [2]string{strings.TrimSuffix(item.Name(), ".json"), filepath.Join(dir, item.Name())})
	}
	return out, nil
}

// load читает все записи и метаданные с диска. Поврежденные файлы пропускаются.
func (s *Store) load() error {
	metaFiles, err := jsonFiles(s.metadataDir())
	if err != nil {
		return fmt.Errorf("scan metadata: %w", err)
	}
	for _, f := range metaFiles {
		var meta models.FileMetadata
		if err := readJSON(f[1], &meta); err != nil {
			s.logger.Warn("Skipping corrupt metadata file", "file", f[1], "error", err)
			continue
		}
		s.metadata[f[0]] = meta
	}

	entryFiles, err := jsonFiles(s.filesDir())
	if err != nil {
		return fmt.Errorf("scan files: %w", err)
	}
	for _, f := range entryFiles {
		var entry models.FileEntry
		if err := readJSON(f[1], &entry); err != nil {
			s.logger.Warn("Skipping corrupt file entry", "file", f[1], "error", err)
			continue
		}
		if entry.ShortName == "" {
			entry.ShortName = f[0]
		}
		if entry.LongFilename == "" {
			s.logger.Warn("Skipping file entry without long filename", "file", f[1])
			continue
		}
		if meta, ok := s.metadata[entry.ContentHash]; ok {
			entry.Metadata = map[string]models.FileMetadata{entry.ContentHash: meta}
		}
		e := entry
		s.files[e.ShortName] = &e
		s.names[e.ShortName] = e.LongFilename
		s.shorts[e.LongFilename] = e.ShortName
	}

	s.logger.Info("Storage loaded", "files", len(s.files), "metadata", len(s.metadata))
	return nil
}
