package services

import (
	"context"
	"encoding/base64"
	"github.com/maxaizer/apply-archive/internal/events"
	"github.com/maxaizer/apply-archive/internal/logger"
	"github.com/maxaizer/apply-archive/internal/metrics"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"mime"
	"net/http"
	"path/filepath"
)

// StoreFile uploads content to the applications server and returns the path it is served from.
// Without a reachable server the content is embedded into a data URL instead.
func (s *Storage) StoreFile(ctx context.Context, fileName string, content []byte) (string, error) {
	const operation = "upload"

	if len(content) == 0 {
		return "", errors.New("file is empty")
	}

	if s.RemoteEnabled() {
		path, err := s.remote.Upload(ctx, fileName, content)
		if s.remoteSucceeded(ctx, operation, err) {
			return path, nil
		}
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeUpload).
			Warnf("failed to upload %s: %v", fileName, err)
		s.notify(events.NoticeInfo, operation, "Failed to upload to server. Storing locally instead.")
	}

	metrics.StorageOperations.WithLabelValues(operation, backendLocal, "success").Inc()
	return DataURL(fileName, content), nil
}

// DataURL encodes content as a base64 data URL, typed by the file extension when it is known.
func DataURL(fileName string, content []byte) string {
	contentType := mime.TypeByExtension(filepath.Ext(fileName))
	if contentType == "" {
		contentType = http.DetectContentType(content)
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(content)
}
