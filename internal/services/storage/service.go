package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/iwtcode/shuiService/internal/domain/models"
	"github.com/iwtcode/shuiService/internal/middleware/logging"
	"github.com/iwtcode/shuiService/internal/middleware/metrics"
	apperrors "github.com/iwtcode/shuiService/pkg/errors"
)

// Executor выполняет fn в потоке-владельце Store и ждет завершения.
type Executor func(fn func()) error

// Direct выполняет fn в вызывающей горутине. Подходит, когда Store никто больше не трогает.
func Direct(fn func()) error {
	fn()
	return nil
}

// Serialized возвращает Executor, выполняющий fn под общим мьютексом.
func Serialized() Executor {
	var mu sync.Mutex
	return func(fn func()) error {
		mu.Lock()
		defer mu.Unlock()
		fn()
		return nil
	}
}

// Service - потокобезопасный фасад над Store и Uploader.
// Без Uploader сервис только читает индекс, загрузки завершаются ErrNoConnection.
type Service struct {
	store    *Store
	uploader *Uploader
	exec     Executor
	timeout  time.Duration
	logger   *logging.Logger
	metrics  *metrics.Recorder
}

func NewService(store *Store, uploader *Uploader, exec Executor, timeout time.Duration, logger *logging.Logger, recorder *metrics.Recorder) *Service {
	return &Service{
		store:    store,
		uploader: uploader,
		exec:     exec,
		timeout:  timeout,
		logger:   logger,
		metrics:  recorder,
	}
}

// Upload загружает файл на принтер и ждет результата не дольше заданного предела.
// Индекс файла обновляется только после ответа 2xx.
func (s *Service) Upload(ctx context.Context, longFilename string, content []byte, startPrinting bool) (string, error) {
	if s.uploader == nil {
		return "", apperrors.ErrNoConnection
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		short   string
		fresh   bool
		nameErr error
	)
	if err := s.exec(func() {
		_, indexed := s.store.Entry(longFilename)
		fresh = !indexed
		short, nameErr = s.store.Make83(longFilename)
	}); err != nil {
		return "", err
	}
	if nameErr != nil {
		s.metrics.Upload("rejected")
		return "", nameErr
	}

	meta := ParseMetadata(content, s.logger)
	prepared, err := PreprocessGCode(content, &meta)
	if err != nil {
		s.logger.Warn("Preview preprocessing failed, uploading original content", "file", longFilename, "error", err)
		prepared = content
	}

	if err := s.uploader.Upload(ctx, longFilename, prepared, startPrinting); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = apperrors.ErrUploadTimeout
		}
		s.logger.Error("Upload failed", "file", longFilename, "short", short, "error", err)
		s.metrics.Upload("failed")
		if fresh {
			_ = s.exec(func() { s.store.Release(longFilename) })
		}
		return "", err
	}

	hash := ContentHash(content)
	runtime := ParseRuntimeIndex(prepared, s.logger)

	var commitErr error
	if err := s.exec(func() {
		_, commitErr = s.store.Commit(longFilename, hash, runtime, meta)
	}); err != nil {
		return "", err
	}
	if commitErr != nil {
		s.logger.Warn("File uploaded but index was not persisted", "file", longFilename, "error", commitErr)
	}

	s.metrics.Upload("ok")
	return short, nil
}

// UploadAsync запускает Upload в отдельной горутине.
func (s *Service) UploadAsync(longFilename string, content []byte, startPrinting bool, callback func(short string, err error)) {
	go func() {
		short, err := s.Upload(context.Background(), longFilename, content, startPrinting)
		if callback != nil {
			callback(short, err)
		}
	}()
}

func (s *Service) GetLongFilename(short string) (string, bool) {
	var (
		long string
		ok   bool
	)
	_ = s.exec(func() { long, ok = s.store.GetLongFilename(short) })
	return long, ok
}

func (s *Service) Get83Filename(longFilename string) (string, bool) {
	var (
		short string
		ok    bool
	)
	_ = s.exec(func() { short, ok = s.store.Get83Filename(longFilename) })
	return short, ok
}

// Make83 резервирует имя 8.3 для длинного имени. Резерв живет в памяти до перезапуска
// и снимается, если загрузка этого файла завершится ошибкой.
func (s *Service) Make83(longFilename string) (string, error) {
	var (
		short string
		err   error
	)
	if execErr := s.exec(func() { short, err = s.store.Make83(longFilename) }); execErr != nil {
		return "", execErr
	}
	return short, err
}

// GetRuntimeData возвращает копию индекса прогресса.
func (s *Service) GetRuntimeData(longFilename string) (models.RuntimeIndex, bool) {
	var (
		out models.RuntimeIndex
		ok  bool
	)
	_ = s.exec(func() {
		var idx *models.RuntimeIndex
		if idx, ok = s.store.GetRuntimeData(longFilename); ok {
			out.Offsets = append([]int64(nil), idx.Offsets...)
			out.States = append([]models.RuntimeState(nil), idx.States...)
		}
	})
	return out, ok
}

func (s *Service) GetContentHash(longFilename string) (string, bool) {
	var (
		hash string
		ok   bool
	)
	_ = s.exec(func() { hash, ok = s.store.GetContentHash(longFilename) })
	return hash, ok
}

func (s *Service) GetMetadata(hash string) (models.FileMetadata, bool) {
	var (
		meta models.FileMetadata
		ok   bool
	)
	_ = s.exec(func() { meta, ok = s.store.GetMetadata(hash) })
	return meta, ok
}

// GetFile возвращает сведения о файле по имени 8.3 или длинному имени.
func (s *Service) GetFile(name string) (models.FileInfo, error) {
	var (
		info  models.FileInfo
		found bool
	)
	err := s.exec(func() {
		long := name
		if l, ok := s.store.GetLongFilename(name); ok {
			long = l
		}
		entry, ok := s.store.Entry(long)
		if !ok {
			return
		}
		found = true
		info = models.FileInfo{ShortName: entry.ShortName, LongFilename: entry.LongFilename, ContentHash: entry.ContentHash}
		if meta, ok := s.store.GetMetadata(entry.ContentHash); ok {
			info.Metadata = &meta
		}
	})
	if err != nil {
		return models.FileInfo{}, err
	}
	if !found {
		return models.FileInfo{}, apperrors.ErrFileNotFound
	}
	return info, nil
}

func (s *Service) StoredFiles() []models.FileInfo {
	var out []models.FileInfo
	_ = s.exec(func() { out = s.store.StoredFiles() })
	return out
}
