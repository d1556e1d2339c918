package photos

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/uggybe/storage-buddy-bot/pkg/errors"
	"github.com/uggybe/storage-buddy-bot/pkg/models"
)

// MaxPhotoSize is the upload ceiling per file.
const MaxPhotoSize = 5 << 20 // 5 MiB

type ItemStore interface {
	GetItem(id int) (*models.Item, error)
	AppendPhotos(id int, keys []string) (int64, error)
	RemovePhoto(id int, key string) (int64, error)
}

type PhotoService struct {
	items ItemStore
	blobs BlobStore
	log   *zap.Logger
}

func NewPhotoService(items ItemStore, blobs BlobStore, log *zap.Logger) *PhotoService {
	return &PhotoService{items: items, blobs: blobs, log: log}
}

type AttachResult struct {
	Attached int      `json:"attached"`
	Failed   int      `json:"failed"`
	Photos   []string `json:"photos"`
}

// Attach stores the accepted files and appends their keys to the item's
// photo list with a single-statement array append, so a concurrent
// attach cannot overwrite another's keys. One bad file does not abort
// uploads that already succeeded; the result reports how many of N
// made it.
func (s *PhotoService) Attach(ctx context.Context, itemID int, files []*multipart.FileHeader) (*AttachResult, error) {
	if len(files) == 0 {
		return nil, apperrors.NewValidationError("photos", "no files supplied")
	}

	item, err := s.items.GetItem(itemID)
	if err != nil {
		return nil, err
	}

	result := &AttachResult{Photos: item.Photos}
	var added []string
	for _, fh := range files {
		key, err := s.storeOne(ctx, itemID, fh)
		if err != nil {
			s.log.Warn("photo upload rejected",
				zap.Int("item_id", itemID), zap.String("file", fh.Filename), zap.Error(err))
			result.Failed++
			continue
		}
		added = append(added, key)
		result.Attached++
	}

	if result.Attached > 0 {
		affected, err := s.items.AppendPhotos(itemID, added)
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			return nil, &apperrors.NotFoundError{Resource: "item", ID: itemID}
		}

		fresh, err := s.items.GetItem(itemID)
		if err != nil {
			return nil, err
		}
		result.Photos = fresh.Photos
	}

	return result, nil
}

func (s *PhotoService) storeOne(ctx context.Context, itemID int, fh *multipart.FileHeader) (string, error) {
	if fh.Size > MaxPhotoSize {
		return "", apperrors.NewValidationError("photo", "file exceeds the 5 MiB limit")
	}

	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	head = head[:n]

	if !strings.HasPrefix(http.DetectContentType(head), "image/") {
		return "", apperrors.NewValidationError("photo", "file is not an image")
	}

	key := fmt.Sprintf("%d/%s%s", itemID, uuid.NewString(), strings.ToLower(filepath.Ext(fh.Filename)))
	if err := s.blobs.Save(ctx, key, io.MultiReader(bytes.NewReader(head), f)); err != nil {
		return "", err
	}

	return key, nil
}

// Detach removes the reference from the item first, then deletes the
// blob best-effort. The removal is a single-statement array operation,
// so it cannot clobber keys a concurrent attach just added.
func (s *PhotoService) Detach(ctx context.Context, itemID int, photoRef string) ([]string, error) {
	if strings.TrimSpace(photoRef) == "" {
		return nil, apperrors.NewValidationError("photo", "must not be blank")
	}

	if _, err := s.items.GetItem(itemID); err != nil {
		return nil, err
	}

	affected, err := s.items.RemovePhoto(itemID, photoRef)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, &apperrors.NotFoundError{Resource: "photo", ID: itemID}
	}

	if err := s.blobs.Delete(ctx, photoRef); err != nil {
		s.log.Warn("failed to delete photo blob",
			zap.Int("item_id", itemID), zap.String("key", photoRef), zap.Error(err))
	}

	fresh, err := s.items.GetItem(itemID)
	if err != nil {
		return nil, err
	}

	return fresh.Photos, nil
}
