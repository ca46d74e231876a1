// Package service implements the item catalogue. Reads are public; writes
// require an actor and are limited to the item's creator or an
// administrator.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"market/internal/access"
	"market/internal/audit"
	"market/internal/auth/denial"
	authmodels "market/internal/auth/models"
	"market/internal/items/models"
	id "market/pkg/domain"
	dErrors "market/pkg/domain-errors"
	"market/pkg/platform/sentinel"
	"market/pkg/requestcontext"
)

const slugAttempts = 3

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store

type Store interface {
	Create(ctx context.Context, item *models.Item) error
	FindByID(ctx context.Context, itemID id.ItemID) (*models.Item, error)
	Update(ctx context.Context, itemID id.ItemID, patch models.Patch, at time.Time) (*models.Item, error)
	Delete(ctx context.Context, itemID id.ItemID) error
	List(ctx context.Context, filter models.Filter) ([]*models.Item, error)
	Count(ctx context.Context, filter models.Filter) (int, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event)
}

var errItemNotFound = dErrors.New(dErrors.CodeNotFound, "Item not found")

type Service struct {
	items   Store
	logger  *slog.Logger
	auditor AuditPublisher
	tracer  trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = p
	}
}

func New(items Store, opts ...Option) *Service {
	s := &Service{
		items:  items,
		logger: slog.Default(),
		tracer: otel.Tracer("market/items/service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type ListResult struct {
	Items []*models.Item
	Total int
}

// List returns one page of published items and the total match count. The
// page and the count are fetched concurrently.
func (s *Service) List(ctx context.Context, filter models.Filter) (*ListResult, error) {
	ctx, span := s.tracer.Start(ctx, "items.List")
	defer span.End()

	if filter.Sort == "" {
		filter.Sort = models.SortNewest
	}
	if !filter.Sort.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "sort must be one of -createdAt, createdAt, price, -price")
	}
	if filter.Category != "" && !filter.Category.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown category")
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return nil, dErrors.New(dErrors.CodeValidation, "minPrice cannot exceed maxPrice")
	}

	var (
		items []*models.Item
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.items.List(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.items.Count(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list items")
	}
	span.SetAttributes(attribute.Int("items.total", total))
	return &ListResult{Items: items, Total: total}, nil
}

func (s *Service) Get(ctx context.Context, itemID id.ItemID) (*models.Item, error) {
	return s.find(ctx, itemID)
}

// Create stores a new item owned by actor.
func (s *Service) Create(ctx context.Context, actor *authmodels.Account, req *models.CreateItemRequest) (*models.Item, error) {
	if actor == nil {
		return nil, denial.New(denial.NoCredential)
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	published := true
	if req.Published != nil {
		published = *req.Published
	}
	item := &models.Item{
		ID:          id.NewItemID(),
		Title:       req.Title,
		Description: req.Description,
		Price:       *req.Price,
		Category:    req.Category,
		Stock:       req.Stock,
		Tags:        req.Tags,
		Published:   published,
		Slug:        models.Slugify(req.Title, now),
		CreatedBy:   actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	for attempt := 1; ; attempt++ {
		err := s.items.Create(ctx, item)
		if err == nil {
			break
		}
		if !errors.Is(err, sentinel.ErrConflict) || attempt == slugAttempts {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create item")
		}
		// same title within the same millisecond
		item.Slug = models.Slugify(req.Title, now) + "-" + uuid.NewString()[:8]
	}

	s.logger.InfoContext(ctx, "item created",
		"item_id", item.ID.String(),
		"created_by", actor.ID.String(),
	)
	return item, nil
}

// Update changes an item. A missing item is reported before ownership is
// checked.
func (s *Service) Update(ctx context.Context, actor *authmodels.Account, itemID id.ItemID, req *models.UpdateItemRequest) (*models.Item, error) {
	item, err := s.findOwned(ctx, actor, itemID)
	if err != nil {
		return nil, err
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.IsEmpty() {
		return item, nil
	}

	updated, err := s.items.Update(ctx, itemID, req.Patch, requestcontext.Now(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, errItemNotFound
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update item")
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, actor *authmodels.Account, itemID id.ItemID) error {
	item, err := s.findOwned(ctx, actor, itemID)
	if err != nil {
		return err
	}
	if err := s.items.Delete(ctx, itemID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return errItemNotFound
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete item")
	}

	if s.auditor != nil {
		reason := "owner"
		if actor.ID != item.CreatedBy {
			reason = "admin"
		}
		s.auditor.Emit(ctx, audit.Event{
			Category:  audit.CategoryCompliance,
			Action:    audit.ActionItemDeleted,
			AccountID: item.CreatedBy.String(),
			ActorID:   actor.ID.String(),
			Reason:    reason,
		})
	}
	return nil
}

// AuthorizeUpdate reports the not-found or ownership failure an update of
// itemID would hit, without changing anything.
func (s *Service) AuthorizeUpdate(ctx context.Context, actor *authmodels.Account, itemID id.ItemID) error {
	_, err := s.findOwned(ctx, actor, itemID)
	return err
}

// findOwned loads the item and checks ownership, in that order.
func (s *Service) findOwned(ctx context.Context, actor *authmodels.Account, itemID id.ItemID) (*models.Item, error) {
	item, err := s.find(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if err := access.AuthorizeOwner(actor, item.CreatedBy); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) find(ctx context.Context, itemID id.ItemID) (*models.Item, error) {
	item, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, errItemNotFound
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load item")
	}
	return item, nil
}
