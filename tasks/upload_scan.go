package tasks

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Ebang213/PharmaForge-O/configs"
	"github.com/Ebang213/PharmaForge-O/logger"
)

// UploadFile is one document picked up from the upload directory
type UploadFile struct {
	Name        string
	ContentType string
	Content     []byte
}

// ScanUploadDir reads pending EPCIS documents from the configured upload
// directory. Only .xml and .json files are picked up; files over the
// configured size limit are skipped with a warning rather than failing
// the whole scan.
func ScanUploadDir(cfg *configs.Config) ([]UploadFile, error) {
	entries, err := os.ReadDir(cfg.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("reading upload dir %s: %w", cfg.UploadDir, err)
	}

	var files []UploadFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		contentType := contentTypeForName(entry.Name())
		if contentType == "" {
			continue
		}

		path := filepath.Join(cfg.UploadDir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			logger.Warn("Skipping unreadable upload", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		if info.Size() > cfg.MaxUploadSize {
			logger.Warn("Skipping oversized upload",
				zap.String("file", entry.Name()),
				zap.Int64("size", info.Size()),
				zap.Int64("limit", cfg.MaxUploadSize),
			)
			continue
		}

		content, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("Skipping unreadable upload", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}

		files = append(files, UploadFile{
			Name:        entry.Name(),
			ContentType: contentType,
			Content:     content,
		})
	}

	logger.Info("Scanned upload directory",
		zap.String("dir", cfg.UploadDir),
		zap.Int("files", len(files)),
	)
	return files, nil
}

func contentTypeForName(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xml":
		return "application/xml"
	case ".json":
		return "application/json"
	default:
		return ""
	}
}
