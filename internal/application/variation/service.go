// Package variation orchestrates variation editing sessions: it loads products
// from the store, runs generation and edits on the session, stores images and
// submits the result back to the store.
package variation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/stockwave/harmony/internal/domain/integration"
	"github.com/stockwave/harmony/internal/domain/shared"
	"github.com/stockwave/harmony/internal/domain/variation"
	"github.com/stockwave/harmony/internal/infrastructure/telemetry"
)

const spanService = "variation_session"

// ErrDraftNotSubmittable is returned when submitting the new-product draft;
// variations can only be written under a product that exists in the store.
var ErrDraftNotSubmittable = errors.New("variation: draft product cannot be submitted")

// imageRemover is implemented by uploaders that can delete what they stored
type imageRemover interface {
	DeleteImage(ctx context.Context, ref variation.ImageRef) error
}

// ServiceConfig holds the collaborators of VariationService
type ServiceConfig struct {
	Sessions       variation.SessionRepository
	Catalog        integration.ProductCatalog
	Images         integration.ImageUploader
	ImageBackend   string
	EventPublisher shared.EventPublisher
	Metrics        *telemetry.VariationMetrics
	Logger         *zap.Logger

	MaxCombinations int
	Currency        string
	Locale          string
	// SKUGenerator overrides the placeholder SKU source (tests)
	SKUGenerator variation.SKUGenerator
}

// VariationService handles variation editing sessions
type VariationService struct {
	sessions     variation.SessionRepository
	catalog      integration.ProductCatalog
	images       integration.ImageUploader
	imageBackend string
	publisher    shared.EventPublisher
	metrics      *telemetry.VariationMetrics
	logger       *zap.Logger
	generator    variation.Generator
	reconciler   *variation.Reconciler
	prices       *PriceFormatter
	now          func() time.Time
}

// NewVariationService creates a new VariationService
func NewVariationService(cfg ServiceConfig) *VariationService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VariationService{
		sessions:     cfg.Sessions,
		catalog:      cfg.Catalog,
		images:       cfg.Images,
		imageBackend: cfg.ImageBackend,
		publisher:    cfg.EventPublisher,
		metrics:      cfg.Metrics,
		logger:       logger,
		generator:    variation.NewGenerator(cfg.MaxCombinations),
		reconciler:   variation.NewReconciler(cfg.SKUGenerator),
		prices:       NewPriceFormatter(cfg.Currency, cfg.Locale),
		now:          time.Now,
	}
}

// OpenSession starts a fresh session for a product, replacing any previous one.
// Product 0 opens an empty draft for a product not yet in the store.
func (s *VariationService) OpenSession(ctx context.Context, productID int64) (*SessionResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "open",
		telemetry.WithAttribute(telemetry.SpanAttrProductID, productID))
	defer span.End()

	session, err := s.newSession(ctx, productID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.save(ctx, session); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("variation session opened",
		zap.Int64("product_id", productID),
		zap.Int("persisted", len(session.Persisted)),
		zap.Int("attributes", len(session.Attributes)),
	)
	return s.toResponse(session), nil
}

func (s *VariationService) newSession(ctx context.Context, productID int64) (*variation.Session, error) {
	if productID == 0 {
		return variation.NewSession(0, "", nil, variation.Defaults{}, nil)
	}
	if productID < 0 {
		return nil, shared.NewDomainError("INVALID_PRODUCT_ID", "Product ID cannot be negative")
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("load product %d: %w", productID, err)
	}
	persisted, err := s.catalog.ListVariations(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("load variations of product %d: %w", productID, err)
	}
	return variation.NewSession(productID, product.Name, product.Attributes, product.Defaults(), persisted)
}

// GetSession returns the current session of a product
func (s *VariationService) GetSession(ctx context.Context, productID int64) (*SessionResponse, error) {
	session, err := s.sessions.FindByProductID(ctx, productID)
	if err != nil {
		return nil, err
	}
	return s.toResponse(session), nil
}

// UpdateAttributes replaces the attribute list (and optionally the defaults).
// Variations are not regenerated until Generate is called.
func (s *VariationService) UpdateAttributes(ctx context.Context, productID int64, req UpdateAttributesRequest) (*SessionResponse, error) {
	return s.mutate(ctx, productID, "update_attributes", func(session *variation.Session) error {
		if err := session.SetAttributes(toDomainAttributes(req.Attributes)); err != nil {
			return err
		}
		if req.Defaults != nil {
			session.SetDefaults(*req.Defaults)
		}
		return nil
	})
}

// Generate regenerates the variation matrix from the session's attributes and
// reconciles it with the working list. Variations whose combination no longer
// exists are pruned and listed in the report.
func (s *VariationService) Generate(ctx context.Context, productID int64) (*SessionWithReport, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "generate",
		telemetry.WithAttribute(telemetry.SpanAttrProductID, productID))
	defer span.End()

	session, err := s.sessions.FindByProductID(ctx, productID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	report, err := session.Regenerate(s.generator, s.reconciler)
	s.metrics.RecordGeneration(ctx, report.Combinations, report.Dropped, err)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrCombinations, report.Combinations,
		telemetry.SpanAttrDropped, report.Dropped,
	)

	if err := s.save(ctx, session); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if report.Dropped > 0 {
		s.logger.Info("regeneration pruned variations",
			zap.Int64("product_id", productID),
			zap.Int("dropped", report.Dropped),
			zap.Strings("signatures", report.DroppedSignatures),
		)
	}
	return &SessionWithReport{Session: s.toResponse(session), Report: report}, nil
}

// GenerateStateless runs generation and reconciliation on caller-provided
// data without touching any session.
func (s *VariationService) GenerateStateless(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "generate_stateless")
	defer span.End()

	combos, err := s.generator.Generate(toDomainAttributes(req.Attributes))
	if err != nil {
		s.metrics.RecordGeneration(ctx, 0, 0, err)
		telemetry.RecordError(span, err)
		return nil, err
	}
	list, report := s.reconciler.Reconcile(variation.ReconcileInput{
		Combinations:     combos,
		Previous:         []variation.Variation(req.Previous),
		Persisted:        []variation.Variation(req.Persisted),
		Defaults:         req.Defaults,
		PersistedProduct: req.PersistedProduct,
	})
	s.metrics.RecordGeneration(ctx, report.Combinations, report.Dropped, nil)
	return &GenerateResponse{Variations: list, Report: report}, nil
}

// BulkEdit applies one bulk action to every variation in the working list
func (s *VariationService) BulkEdit(ctx context.Context, productID int64, req BulkEditRequest) (*SessionResponse, error) {
	action := variation.BulkAction(req.Action)
	resp, err := s.mutate(ctx, productID, "bulk_edit", func(session *variation.Session) error {
		return session.ApplyBulk(action, variation.BulkParams{
			Price:       req.Price,
			StockStatus: req.StockStatus,
			Quantity:    req.Quantity,
			Confirm:     req.Confirm,
		})
	}, telemetry.WithAttribute(telemetry.SpanAttrBulkAction, req.Action))
	s.metrics.RecordBulkEdit(ctx, req.Action, err)
	return resp, err
}

// UpdateVariation applies a per-field edit to one variation
func (s *VariationService) UpdateVariation(ctx context.Context, productID int64, index int, req UpdateVariationRequest) (*SessionResponse, error) {
	return s.mutate(ctx, productID, "update_variation", func(session *variation.Session) error {
		return session.UpdateVariation(index, req.toPatch())
	}, telemetry.WithAttribute(telemetry.SpanAttrVariationIdx, index))
}

// DeleteVariation removes one variation from the working list. A persisted
// variation is deleted from the store on the next Submit.
func (s *VariationService) DeleteVariation(ctx context.Context, productID int64, index int) (*SessionResponse, error) {
	return s.mutate(ctx, productID, "delete_variation", func(session *variation.Session) error {
		_, err := session.RemoveVariation(index)
		return err
	}, telemetry.WithAttribute(telemetry.SpanAttrVariationIdx, index))
}

// UploadImage stores an image and records it on the variation at req.Index
func (s *VariationService) UploadImage(ctx context.Context, productID int64, req UploadImageRequest) (*ImageUploadResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "upload_image",
		telemetry.WithAttribute(telemetry.SpanAttrProductID, productID),
		telemetry.WithAttribute(telemetry.SpanAttrVariationIdx, req.Index))
	defer span.End()

	session, err := s.sessions.FindByProductID(ctx, productID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	target, err := session.Variation(req.Index)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	upload := integration.ImageUpload{
		ProductID:   productID,
		Filename:    req.Filename,
		ContentType: req.ContentType,
		Size:        req.Size,
		Body:        req.Body,
	}
	if !session.IsNewProduct {
		upload.VariationID = target.ID
	}
	ref, err := s.images.UploadVariationImage(ctx, upload)
	s.metrics.RecordImageUpload(ctx, s.imageBackend, err)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := session.AssignImage(req.Index, ref); err != nil {
		s.discardImage(ctx, ref)
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.save(ctx, session); err != nil {
		s.discardImage(ctx, ref)
		telemetry.RecordError(span, err)
		return nil, err
	}
	return &ImageUploadResponse{Index: req.Index, Image: ref}, nil
}

func (s *VariationService) discardImage(ctx context.Context, ref variation.ImageRef) {
	remover, ok := s.images.(imageRemover)
	if !ok {
		return
	}
	if err := remover.DeleteImage(ctx, ref); err != nil {
		s.logger.Warn("failed to remove orphaned variation image", zap.String("src", ref.Src), zap.Error(err))
	}
}

// Preview returns the payload Submit would send
func (s *VariationService) Preview(ctx context.Context, productID int64) (*PreviewResponse, error) {
	session, err := s.sessions.FindByProductID(ctx, productID)
	if err != nil {
		return nil, err
	}
	records := session.Submission()
	return previewFromBatch(records, buildBatch(session, records)), nil
}

func buildBatch(session *variation.Session, records []variation.SubmissionRecord) integration.VariationBatch {
	create, update := variation.SplitSubmission(records)
	return integration.VariationBatch{
		Create: create,
		Update: update,
		Delete: session.RemovedPersistedIDs(),
	}
}

// Submit sends the working list to the store in one batch, then reloads the
// saved variations so the session mirrors the store.
func (s *VariationService) Submit(ctx context.Context, productID int64) (*SubmitResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "submit",
		telemetry.WithAttribute(telemetry.SpanAttrProductID, productID))
	defer span.End()

	session, err := s.sessions.FindByProductID(ctx, productID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if session.IsNewProduct {
		err := shared.WrapDomainError("PRODUCT_NOT_SAVED", "Save the product before submitting its variations", ErrDraftNotSubmittable)
		telemetry.RecordError(span, err)
		return nil, err
	}

	batch := buildBatch(session, session.Submission())
	if batch.IsEmpty() {
		return nil, shared.WrapDomainError("NOTHING_TO_SUBMIT", "There are no variations to submit", variation.ErrNoVariations)
	}

	start := s.now()
	result, err := s.catalog.BatchVariations(ctx, productID, batch)
	elapsed := s.now().Sub(start)
	if err != nil {
		s.metrics.RecordSubmission(ctx, 0, 0, 0, elapsed, err)
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("submit variations of product %d: %w", productID, err)
	}
	s.metrics.RecordSubmission(ctx, len(batch.Create), len(batch.Update), len(batch.Delete), elapsed, nil)

	saved, err := s.catalog.ListVariations(ctx, productID)
	if err != nil {
		s.logger.Warn("reload after submit failed, using batch response",
			zap.Int64("product_id", productID), zap.Error(err))
		saved = append(append([]variation.Variation{}, result.Updated...), result.Created...)
	}
	session.MarkSubmitted(saved)
	if err := s.save(ctx, session); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("variations submitted",
		zap.Int64("product_id", productID),
		zap.Int("created", len(batch.Create)),
		zap.Int("updated", len(batch.Update)),
		zap.Int("deleted", len(batch.Delete)),
		zap.Duration("elapsed", elapsed),
	)
	return &SubmitResponse{
		Session: s.toResponse(session),
		Created: len(batch.Create),
		Updated: len(batch.Update),
		Deleted: len(batch.Delete),
	}, nil
}

// Discard deletes the session of a product
func (s *VariationService) Discard(ctx context.Context, productID int64) error {
	if _, err := s.sessions.FindByProductID(ctx, productID); err != nil {
		return err
	}
	return s.sessions.DeleteByProductID(ctx, productID)
}

// mutate loads a session, applies fn and saves it
func (s *VariationService) mutate(ctx context.Context, productID int64, op string, fn func(*variation.Session) error, opts ...telemetry.SpanOption) (*SessionResponse, error) {
	opts = append(opts, telemetry.WithAttribute(telemetry.SpanAttrProductID, productID))
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, op, opts...)
	defer span.End()

	session, err := s.sessions.FindByProductID(ctx, productID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := fn(session); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.save(ctx, session); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return s.toResponse(session), nil
}

// save stores the session and publishes the events it raised.
// Publishing failures are logged; the session is already saved.
func (s *VariationService) save(ctx context.Context, session *variation.Session) error {
	if err := s.sessions.Save(ctx, session); err != nil {
		return fmt.Errorf("save session of product %d: %w", session.ProductID, err)
	}
	events := session.PullEvents()
	if s.publisher == nil || len(events) == 0 {
		return nil
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish variation session events",
			zap.Int64("product_id", session.ProductID),
			zap.Error(err),
		)
	}
	return nil
}

func (s *VariationService) toResponse(session *variation.Session) *SessionResponse {
	return &SessionResponse{
		ID:           session.ID,
		ProductID:    session.ProductID,
		ProductName:  session.ProductName,
		IsNewProduct: session.IsNewProduct,
		Attributes:   session.Attributes,
		Defaults:     session.Defaults,
		Variations:   session.Variations,
		Persisted:    len(session.Persisted),
		PriceRange:   s.prices.rangeResponse(session.PriceRange()),
		Version:      session.Version,
		CreatedAt:    session.CreatedAt,
		UpdatedAt:    session.UpdatedAt,
	}
}
