package usecase

import (
	"context"
	"fmt"
	"strings"

	"telegram-hosting-bot/internal/domain"
	"telegram-hosting-bot/internal/domain/model"
	"telegram-hosting-bot/internal/domain/ports/adapter"
	"telegram-hosting-bot/internal/infra/logging"
	"telegram-hosting-bot/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ FileUseCase = (*fileUC)(nil)

// FileUseCase is the upload/delete flow. The one invariant it must uphold:
// the ledger tracks successful store operations only, so the quota write is
// strictly sequenced after the storage call in both directions.
type FileUseCase interface {
	Upload(ctx context.Context, tgID int64, fileName string, content []byte) (*model.StoredFile, error)
	List(ctx context.Context, tgID int64) ([]model.StoredFile, error)
	Delete(ctx context.Context, tgID int64, fileName string) error
}

type fileUC struct {
	quota      QuotaUseCase
	moderation ModerationUseCase
	blobs      adapter.BlobStore
	log        *zerolog.Logger
}

func NewFileUseCase(quota QuotaUseCase, moderation ModerationUseCase, blobs adapter.BlobStore, logger *zerolog.Logger) *fileUC {
	return &fileUC{
		quota:      quota,
		moderation: moderation,
		blobs:      blobs,
		log:        logger,
	}
}

func (f *fileUC) Upload(ctx context.Context, tgID int64, fileName string, content []byte) (*model.StoredFile, error) {
	defer logging.TraceDuration(f.log, "FileUC.Upload")()

	if err := f.gate(ctx, tgID); err != nil {
		return nil, err
	}
	// Validate the name before any storage call.
	if !model.AllowedFileName(fileName) {
		metrics.IncUpload("rejected")
		return nil, domain.ErrUnsupportedFileType
	}
	ok, err := f.quota.CanUpload(ctx, tgID)
	if err != nil {
		return nil, err
	}
	if !ok {
		metrics.IncUpload("rejected")
		return nil, domain.ErrQuotaExceeded
	}

	key := model.FileKey(tgID, fileName)
	if err := f.blobs.Put(ctx, key, content, model.ContentTypeFor(fileName)); err != nil {
		metrics.IncUpload("failed")
		return nil, fmt.Errorf("store file: %w", err)
	}

	// Ledger write only after the blob landed. The transaction re-checks
	// the allowance, so a concurrent upload that raced past CanUpload is
	// caught here. Whatever the failure, the blob is not accounted for
	// and gets removed best-effort.
	if err := f.quota.AdjustFileCount(ctx, tgID, +1); err != nil {
		if delErr := f.blobs.Delete(ctx, key); delErr != nil {
			f.log.Warn().Err(delErr).Str("key", key).Msg("orphaned blob after failed ledger update")
		}
		metrics.IncUpload("failed")
		return nil, err
	}
	metrics.IncUpload("stored")

	return &model.StoredFile{
		Name: fileName,
		Key:  key,
		Size: int64(len(content)),
		URL:  f.blobs.PublicURL(key),
	}, nil
}

func (f *fileUC) List(ctx context.Context, tgID int64) ([]model.StoredFile, error) {
	defer logging.TraceDuration(f.log, "FileUC.List")()

	if err := f.gate(ctx, tgID); err != nil {
		return nil, err
	}
	prefix := model.FilePrefix(tgID)
	objects, err := f.blobs.ListPrefix(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	files := make([]model.StoredFile, 0, len(objects))
	for _, obj := range objects {
		files = append(files, model.StoredFile{
			Name: strings.TrimPrefix(obj.Key, prefix),
			Key:  obj.Key,
			Size: obj.Size,
			URL:  f.blobs.PublicURL(obj.Key),
		})
	}
	return files, nil
}

func (f *fileUC) Delete(ctx context.Context, tgID int64, fileName string) error {
	defer logging.TraceDuration(f.log, "FileUC.Delete")()

	if err := f.gate(ctx, tgID); err != nil {
		return err
	}
	key := model.FileKey(tgID, fileName)
	exists, err := f.blobs.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check file: %w", err)
	}
	if !exists {
		metrics.IncDelete("not_found")
		return domain.ErrFileNotFound
	}
	if err := f.blobs.Delete(ctx, key); err != nil {
		metrics.IncDelete("failed")
		return fmt.Errorf("delete file: %w", err)
	}
	// Decrement only after the object is gone.
	if err := f.quota.AdjustFileCount(ctx, tgID, -1); err != nil {
		f.log.Error().Err(err).Int64("tg_id", tgID).Str("key", key).Msg("ledger decrement failed after delete")
		return err
	}
	metrics.IncDelete("deleted")
	return nil
}

func (f *fileUC) gate(ctx context.Context, tgID int64) error {
	banned, err := f.moderation.IsBanned(ctx, tgID)
	if err != nil {
		return err
	}
	if banned {
		metrics.IncBannedGate()
		return domain.ErrBanned
	}
	return nil
}
