package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"siteops/internal/config"
	"siteops/internal/domain"
	"siteops/internal/repository"
	"siteops/pkg/utils"
)

const backupPrefix = "originals/"

type ImageService interface {
	// Optimize processes paths, or the configured file list when paths is empty.
	Optimize(ctx context.Context, paths []string) (*domain.OptimizeRun, error)
	ListBackups(ctx context.Context) ([]string, error)
	Restore(ctx context.Context, runID string) ([]string, error)
}

type imageService struct {
	backups repository.S3Repository
	cfg     *config.OptimizeConfig
	log     *zap.Logger
	proc    *utils.ImageProcessor
}

// NewImageService wires the optimizer. backups may be nil, in which case
// originals are overwritten without a copy.
func NewImageService(backups repository.S3Repository, cfg *config.OptimizeConfig, log *zap.Logger) ImageService {
	return &imageService{
		backups: backups,
		cfg:     cfg,
		log:     log,
		proc:    utils.NewImageProcessor(log),
	}
}

func (s *imageService) Optimize(ctx context.Context, paths []string) (*domain.OptimizeRun, error) {
	if len(paths) == 0 {
		paths = s.cfg.Files
	}

	run := &domain.OptimizeRun{
		ID:        uuid.New().String(),
		StartedAt: time.Now(),
		Results:   make([]domain.OptimizeResult, 0, len(paths)),
	}

	s.log.Info("Starting image optimization",
		zap.String("run_id", run.ID),
		zap.Int("files", len(paths)))

	opts := utils.OptimizeOptions{MaxWidth: s.cfg.MaxWidth, Quality: s.cfg.Quality}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return run, err
		}

		if _, err := os.Stat(path); err != nil {
			s.log.Warn("File not found", zap.String("path", path), zap.Error(err))
			run.Results = append(run.Results, domain.OptimizeResult{
				Original: domain.ImageRecord{Path: path},
				Skipped:  true,
			})
			continue
		}

		var backupKey string
		if s.backups != nil {
			key, err := s.backup(ctx, run.ID, path)
			if err != nil {
				return run, fmt.Errorf("backup %s: %w", path, err)
			}
			backupKey = key
		}

		result, err := s.proc.Optimize(path, opts)
		if err != nil {
			return run, err
		}
		result.BackupKey = backupKey
		run.Results = append(run.Results, *result)
	}

	run.FinishedAt = time.Now()

	s.log.Info("Image optimization complete",
		zap.String("run_id", run.ID),
		zap.Duration("elapsed", run.FinishedAt.Sub(run.StartedAt)))

	return run, nil
}

func (s *imageService) backup(ctx context.Context, runID, path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	file, err := os.Open(abs)
	if err != nil {
		return "", err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", err
	}

	key := BackupKey(runID, abs)
	if err := s.backups.UploadFile(ctx, key, file, info.Size(), "image/jpeg"); err != nil {
		return "", err
	}
	return key, nil
}

func (s *imageService) ListBackups(ctx context.Context) ([]string, error) {
	if s.backups == nil {
		return nil, domain.ErrBackupDisabled
	}
	return s.backups.ListFiles(ctx, backupPrefix)
}

// Restore writes every original saved by run runID back to its path.
func (s *imageService) Restore(ctx context.Context, runID string) ([]string, error) {
	if s.backups == nil {
		return nil, domain.ErrBackupDisabled
	}

	prefix := backupPrefix + runID + "/"
	keys, err := s.backups.ListFiles(ctx, prefix)
	if err != nil {
		return nil, err
	}

	var restored []string
	for _, key := range keys {
		path := filepath.FromSlash("/" + strings.TrimPrefix(key, prefix))

		if err := s.restoreOne(ctx, key, path); err != nil {
			return restored, fmt.Errorf("restore %s: %w", path, err)
		}
		restored = append(restored, path)

		s.log.Info("Original restored",
			zap.String("key", key),
			zap.String("path", path))
	}

	return restored, nil
}

func (s *imageService) restoreOne(ctx context.Context, key, path string) error {
	body, err := s.backups.DownloadFile(ctx, key)
	if err != nil {
		return err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}

	perm := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}
	return utils.ReplaceFile(path, data, perm)
}

// BackupKey is the object key holding the original of absPath for a run.
func BackupKey(runID, absPath string) string {
	return backupPrefix + runID + "/" + strings.TrimPrefix(filepath.ToSlash(absPath), "/")
}
