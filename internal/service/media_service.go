package service

import (
	"context"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nxl-pharma/crm-api/internal/config"
	"github.com/nxl-pharma/crm-api/internal/domain"
	"github.com/nxl-pharma/crm-api/internal/events"
	"github.com/nxl-pharma/crm-api/internal/repository"
	"github.com/nxl-pharma/crm-api/internal/storage"
	apperrors "github.com/nxl-pharma/crm-api/pkg/util"
)

// LikeWindow is how long one visitor's like on an item counts.
const LikeWindow = 24 * time.Hour

// MediaService manages gallery images and certifications.
type MediaService struct {
	repos      map[domain.MediaKind]repository.MediaRepository
	store      ObjectStore
	keys       KeyStore
	dispatcher events.Dispatcher
	logger     *zap.Logger
	maxUpload  int64
	thumbWidth int
	now        func() time.Time
}

// MediaDependencies bundles requirements for the media service.
type MediaDependencies struct {
	Repos      []repository.MediaRepository
	Store      ObjectStore
	Keys       KeyStore
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Now        func() time.Time
}

// MediaUpload is a new image with its metadata.
type MediaUpload struct {
	Title       string
	Description string
	Visible     bool
	Note        string
	Filename    string
	Data        []byte
}

// MediaUpdate is a partial metadata change.
type MediaUpdate struct {
	Title       *string
	Description *string
	Visible     *bool
	Note        *string
	Order       *int
}

// LikeResult is returned to the public site after a like.
type LikeResult struct {
	Likes int64 `json:"likes"`
	Liked bool  `json:"liked"`
}

// NewMediaService constructs the service.
func NewMediaService(cfg config.StorageConfig, deps MediaDependencies) *MediaService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	repos := make(map[domain.MediaKind]repository.MediaRepository, len(deps.Repos))
	for _, repo := range deps.Repos {
		repos[repo.Kind()] = repo
	}
	return &MediaService{
		repos:      repos,
		store:      deps.Store,
		keys:       deps.Keys,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		maxUpload:  cfg.MaxUploadBytes,
		thumbWidth: cfg.ThumbnailWidth,
		now:        clockOrNow(deps.Now),
	}
}

func (s *MediaService) repo(kind domain.MediaKind) (repository.MediaRepository, error) {
	repo, ok := s.repos[kind]
	if !kind.Valid() || !ok {
		return nil, apperrors.NewNotFound("collection", map[string]any{"kind": kind})
	}
	return repo, nil
}

func (s *MediaService) get(ctx context.Context, repo repository.MediaRepository, id string) (*domain.MediaItem, error) {
	item, err := repo.GetByID(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound(string(repo.Kind())+" item", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return item, nil
}

// List returns items ordered by their sequence.
func (s *MediaService) List(ctx context.Context, kind domain.MediaKind, visibleOnly bool) ([]domain.MediaItem, error) {
	repo, err := s.repo(kind)
	if err != nil {
		return nil, err
	}
	items, err := repo.List(ctx, visibleOnly)
	return items, apperrors.MapError(err)
}

// Create stores the uploaded image, its thumbnail and the metadata document.
func (s *MediaService) Create(ctx context.Context, actor *domain.StaffMember, kind domain.MediaKind, upload MediaUpload) (*domain.MediaItem, error) {
	repo, err := s.repo(kind)
	if err != nil {
		return nil, err
	}
	if len(upload.Data) == 0 {
		return nil, apperrors.NewValidationError("image is required", nil)
	}
	if s.maxUpload > 0 && int64(len(upload.Data)) > s.maxUpload {
		return nil, apperrors.NewDomainError("PAYLOAD_TOO_LARGE", "image is too large", http.StatusRequestEntityTooLarge,
			map[string]any{"maxBytes": s.maxUpload})
	}
	contentType, ext, ok := storage.DetectImageType(upload.Data)
	if !ok {
		return nil, apperrors.NewValidationError("image must be JPEG, PNG or WebP", nil)
	}
	if s.store == nil {
		return nil, apperrors.NewDomainError("STORAGE_UNAVAILABLE", "media storage is not configured", http.StatusServiceUnavailable, nil)
	}

	title := strings.TrimSpace(upload.Title)
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(upload.Filename), filepath.Ext(upload.Filename))
	}
	key := storage.ObjectKey(string(kind), title, ext)
	imageURL, err := s.store.Put(ctx, key, contentType, upload.Data)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	item := &domain.MediaItem{
		ID:          uuid.NewString(),
		Kind:        kind,
		Title:       title,
		Description: strings.TrimSpace(upload.Description),
		ImageURL:    imageURL,
		ThumbURL:    imageURL,
		StorageKey:  key,
		ContentType: contentType,
		SizeBytes:   int64(len(upload.Data)),
		Visible:     upload.Visible,
		Note:        strings.TrimSpace(upload.Note),
	}
	s.attachThumbnail(ctx, item, upload.Data)

	if item.Order, err = repo.NextOrder(ctx); err != nil {
		s.removeObjects(ctx, item)
		return nil, apperrors.MapError(err)
	}
	now := s.now()
	item.CreatedAt = now
	item.UpdatedAt = now
	if err := repo.Create(ctx, item); err != nil {
		s.removeObjects(ctx, item)
		return nil, apperrors.MapError(err)
	}
	s.emit(ctx, events.EventMediaCreated, actor, item, item.Title)
	return item, nil
}

func (s *MediaService) attachThumbnail(ctx context.Context, item *domain.MediaItem, data []byte) {
	thumb, ok, err := storage.Thumbnail(data, item.ContentType, s.thumbWidth)
	if err != nil {
		s.logger.Warn("generate thumbnail", zap.String("key", item.StorageKey), zap.Error(err))
		return
	}
	if !ok {
		return
	}
	thumbKey := storage.ThumbKey(item.StorageKey)
	thumbURL, err := s.store.Put(ctx, thumbKey, item.ContentType, thumb)
	if err != nil {
		s.logger.Warn("upload thumbnail", zap.String("key", thumbKey), zap.Error(err))
		return
	}
	item.ThumbKey = thumbKey
	item.ThumbURL = thumbURL
}

// Update changes item metadata.
func (s *MediaService) Update(ctx context.Context, actor *domain.StaffMember, kind domain.MediaKind, id string, update MediaUpdate) (*domain.MediaItem, error) {
	repo, err := s.repo(kind)
	if err != nil {
		return nil, err
	}
	item, err := s.get(ctx, repo, id)
	if err != nil {
		return nil, err
	}
	if update.Title != nil {
		title := strings.TrimSpace(*update.Title)
		if title == "" {
			return nil, apperrors.NewValidationError("title is required", nil)
		}
		item.Title = title
	}
	if update.Description != nil {
		item.Description = strings.TrimSpace(*update.Description)
	}
	if update.Visible != nil {
		item.Visible = *update.Visible
	}
	if update.Note != nil {
		item.Note = strings.TrimSpace(*update.Note)
	}
	if update.Order != nil {
		if *update.Order < 0 {
			return nil, apperrors.NewValidationError("order must not be negative", nil)
		}
		item.Order = *update.Order
	}
	item.UpdatedAt = s.now()
	if err := repo.Update(ctx, item); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.emit(ctx, events.EventMediaUpdated, actor, item, item.Title)
	return item, nil
}

// Delete removes the document and then its stored objects.
func (s *MediaService) Delete(ctx context.Context, actor *domain.StaffMember, kind domain.MediaKind, id string) error {
	repo, err := s.repo(kind)
	if err != nil {
		return err
	}
	item, err := s.get(ctx, repo, id)
	if err != nil {
		return err
	}
	if err := repo.Delete(ctx, item.ID); err != nil {
		return apperrors.MapError(err)
	}
	s.removeObjects(ctx, item)
	s.emit(ctx, events.EventMediaDeleted, actor, item, item.Title)
	return nil
}

// Reorder assigns order = index for every id.
func (s *MediaService) Reorder(ctx context.Context, actor *domain.StaffMember, kind domain.MediaKind, ids []string) error {
	repo, err := s.repo(kind)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return apperrors.NewValidationError("ids are required", nil)
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup || id == "" {
			return apperrors.NewValidationError("ids must be unique and non-empty", nil)
		}
		seen[id] = struct{}{}
	}
	if err := repo.SetOrder(ctx, ids, s.now()); err != nil {
		return apperrors.MapError(err)
	}
	publish(ctx, s.dispatcher, events.Event{
		Type:      events.EventMediaUpdated,
		Target:    string(kind),
		Actor:     events.ActorFrom(actor),
		Detail:    "reorder",
		Timestamp: s.now(),
	})
	return nil
}

// RecordView counts a public view of a visible item.
func (s *MediaService) RecordView(ctx context.Context, kind domain.MediaKind, id string) (int64, error) {
	repo, err := s.repo(kind)
	if err != nil {
		return 0, err
	}
	views, err := repo.IncrementViews(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return 0, apperrors.NewNotFound(string(kind)+" item", map[string]any{"id": id})
		}
		return 0, apperrors.MapError(err)
	}
	return views, nil
}

// Like counts at most one like per visitor per item per LikeWindow. When the
// key store is unreachable every like counts.
func (s *MediaService) Like(ctx context.Context, kind domain.MediaKind, id, visitorHash string) (*LikeResult, error) {
	repo, err := s.repo(kind)
	if err != nil {
		return nil, err
	}
	item, err := s.get(ctx, repo, id)
	if err != nil {
		return nil, err
	}
	if !item.Visible {
		return nil, apperrors.NewNotFound(string(kind)+" item", map[string]any{"id": id})
	}

	if s.keys != nil {
		first, err := s.keys.SetOnce(ctx, "like:"+string(kind)+":"+id+":"+visitorHash, LikeWindow)
		if err != nil {
			s.logger.Warn("like dedupe unavailable", zap.String("item", string(kind)+"/"+id), zap.Error(err))
			first = true
		}
		if !first {
			return &LikeResult{Likes: item.Likes, Liked: false}, nil
		}
	}
	likes, err := repo.IncrementLikes(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &LikeResult{Likes: likes, Liked: true}, nil
}

// Totals sums counters across every media collection.
func (s *MediaService) Totals(ctx context.Context) (repository.MediaTotals, error) {
	var sum repository.MediaTotals
	for _, repo := range s.repos {
		t, err := repo.Totals(ctx)
		if err != nil {
			return sum, apperrors.MapError(err)
		}
		sum.Items += t.Items
		sum.Views += t.Views
		sum.Likes += t.Likes
	}
	return sum, nil
}

func (s *MediaService) removeObjects(ctx context.Context, item *domain.MediaItem) {
	if s.store == nil {
		return
	}
	for _, key := range []string{item.StorageKey, item.ThumbKey} {
		if key == "" {
			continue
		}
		if err := s.store.Delete(ctx, key); err != nil {
			s.logger.Warn("delete object", zap.String("key", key), zap.Error(err))
		}
	}
}

func (s *MediaService) emit(ctx context.Context, t events.EventType, actor *domain.StaffMember, item *domain.MediaItem, detail string) {
	publish(ctx, s.dispatcher, events.Event{
		Type:      t,
		Target:    string(item.Kind) + "/" + item.ID,
		Actor:     events.ActorFrom(actor),
		Detail:    detail,
		Timestamp: s.now(),
	})
}
