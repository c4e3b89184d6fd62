package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/iwtcode/shuiService/internal/middleware/logging"
	apperrors "github.com/iwtcode/shuiService/pkg/errors"
)

const uploadChunkSize = 8 * 1024

// Uploader отправляет файлы на HTTP-сервер принтера.
type Uploader struct {
	url    string
	client *http.Client
	logger *logging.Logger
}

// NewUploader создает клиента загрузки для http://host:port/upload.
func NewUploader(host string, port int, logger *logging.Logger) *Uploader {
	return &Uploader{
		url:    fmt.Sprintf("http://%s:%d/upload", host, port),
		client: &http.Client{},
		logger: logger,
	}
}

// Upload отправляет content как multipart-форму с полем "file".
// Успехом считается любой ответ 2xx.
func (u *Uploader) Upload(ctx context.Context, filename string, content []byte, startPrinting bool) error {
	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeForm(form, filename, content))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.url, pr)
	if err != nil {
		pr.Close()
		return fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	if startPrinting {
		req.Header.Set("Start-Printing", "1")
	}

	u.logger.Info("Uploading file", "file", filename, "bytes", len(content), "start_printing", startPrinting)

	resp, err := u.client.Do(req)
	// Транспорт может не дочитать тело, писатель не должен зависнуть.
	pr.Close()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return apperrors.ErrUploadTimeout
		}
		return fmt.Errorf("%w: %v", apperrors.ErrUploadFailed, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	// Ответ, пришедший после предела, все равно считается таймаутом.
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperrors.ErrUploadTimeout
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: server returned error code: %d", apperrors.ErrUploadFailed, resp.StatusCode)
	}

	u.logger.Info("File uploaded", "file", filename, "status", resp.StatusCode)
	return nil
}

func writeForm(form *multipart.Writer, filename string, content []byte) error {
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	for offset := 0; offset < len(content); offset += uploadChunkSize {
		end := offset + uploadChunkSize
		if end > len(content) {
			end = len(content)
		}
		if _, err := part.Write(content[offset:end]); err != nil {
			return err
		}
	}
	return form.Close()
}
