package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/membership/internal/clock"
	"github.com/smallbiznis/membership/internal/customer/domain"
	obsmetrics "github.com/smallbiznis/membership/internal/observability/metrics"
	"github.com/smallbiznis/membership/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    domain.Repository
	Clock   clock.Clock         `optional:"true"`
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log     *zap.Logger
	genID   *snowflake.Node
	repo    domain.Repository
	clock   clock.Clock
	metrics *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &Service{
		log:     p.Log.Named("customer.service"),
		genID:   p.GenID,
		repo:    p.Repo,
		clock:   clk,
		metrics: p.Metrics,
	}
}

// fields holds the normalized mutable columns shared by create and update.
type fields struct {
	name      string
	email     *string
	phone     *string
	document  *string
	address   *string
	notes     *string
	birthDate *datatypes.Date
}

func (s *Service) ListCustomers(ctx context.Context, ownerID snowflake.ID) ([]*domain.Customer, error) {
	if ownerID == 0 {
		return nil, domain.ErrInvalidOwner
	}
	return s.repo.ListActiveByOwner(ctx, ownerID)
}

func (s *Service) ListCustomersWithSubscriptions(ctx context.Context, ownerID snowflake.ID) ([]*domain.Customer, error) {
	if ownerID == 0 {
		return nil, domain.ErrInvalidOwner
	}
	return s.repo.ListByOwnerWithSubscriptions(ctx, ownerID)
}

func (s *Service) GetCustomer(ctx context.Context, id, ownerID snowflake.ID) (*domain.Customer, error) {
	customer, err := s.repo.FindByIDAndOwner(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, domain.ErrNotFound
	}
	return customer, nil
}

func (s *Service) CreateCustomer(ctx context.Context, req domain.CreateCustomerRequest, ownerID snowflake.ID) (*domain.Customer, error) {
	if ownerID == 0 {
		return nil, domain.ErrInvalidOwner
	}

	f, err := normalize(req.Name, req.Email, req.Phone, req.Document, req.Address, req.Notes, req.BirthDate)
	if err != nil {
		return nil, err
	}
	if err := s.checkConflicts(ctx, ownerID, f, nil); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	customer := &domain.Customer{
		ID:        s.genID.Generate(),
		Name:      f.name,
		Email:     f.email,
		Phone:     f.phone,
		Document:  f.document,
		Address:   f.address,
		BirthDate: f.birthDate,
		IsActive:  true,
		Notes:     f.notes,
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, customer); err != nil {
		return nil, s.duplicateToConflict(ctx, err, ownerID, f, nil)
	}

	s.log.Info("customer created",
		zap.String("customer_id", customer.ID.String()),
		zap.String("owner_id", ownerID.String()),
	)
	return customer, nil
}

func (s *Service) UpdateCustomer(ctx context.Context, id snowflake.ID, req domain.UpdateCustomerRequest, ownerID snowflake.ID) (*domain.Customer, error) {
	customer, err := s.GetCustomer(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	f, err := normalize(req.Name, req.Email, req.Phone, req.Document, req.Address, req.Notes, req.BirthDate)
	if err != nil {
		return nil, err
	}
	if err := s.checkConflicts(ctx, ownerID, f, &customer.ID); err != nil {
		return nil, err
	}

	customer.Name = f.name
	customer.Email = f.email
	customer.Phone = f.phone
	customer.Document = f.document
	customer.Address = f.address
	customer.BirthDate = f.birthDate
	customer.IsActive = req.IsActive
	customer.Notes = f.notes
	customer.UpdatedAt = s.clock.Now()

	if err := s.repo.Save(ctx, customer); err != nil {
		return nil, s.duplicateToConflict(ctx, err, ownerID, f, &customer.ID)
	}

	s.log.Info("customer updated",
		zap.String("customer_id", customer.ID.String()),
		zap.String("owner_id", ownerID.String()),
	)
	return customer, nil
}

func (s *Service) DeleteCustomer(ctx context.Context, id, ownerID snowflake.ID) (bool, error) {
	customer, err := s.repo.FindByIDAndOwner(ctx, id, ownerID)
	if err != nil {
		return false, err
	}
	if customer == nil {
		return false, nil
	}

	if err := s.repo.Delete(ctx, customer); err != nil {
		return false, fmt.Errorf("delete customer: %w", err)
	}

	s.log.Info("customer deleted",
		zap.String("customer_id", id.String()),
		zap.String("owner_id", ownerID.String()),
	)
	return true, nil
}

func (s *Service) IsDocumentInUse(ctx context.Context, document string, ownerID snowflake.ID, excludeID *snowflake.ID) (bool, error) {
	document = strings.TrimSpace(document)
	if document == "" {
		return false, nil
	}
	return s.repo.ExistsDocument(ctx, ownerID, document, excludeID)
}

func (s *Service) IsEmailInUse(ctx context.Context, email string, ownerID snowflake.ID, excludeID *snowflake.ID) (bool, error) {
	email = normalizeEmail(email)
	if email == "" {
		return false, nil
	}
	return s.repo.ExistsEmail(ctx, ownerID, email, excludeID)
}

// checkConflicts looks at document first, then email.
func (s *Service) checkConflicts(ctx context.Context, ownerID snowflake.ID, f fields, excludeID *snowflake.ID) error {
	if f.document != nil {
		taken, err := s.repo.ExistsDocument(ctx, ownerID, *f.document, excludeID)
		if err != nil {
			return err
		}
		if taken {
			s.metrics.RecordCustomerConflict(ctx, "document")
			return domain.ErrDocumentInUse
		}
	}
	if f.email != nil {
		taken, err := s.repo.ExistsEmail(ctx, ownerID, *f.email, excludeID)
		if err != nil {
			return err
		}
		if taken {
			s.metrics.RecordCustomerConflict(ctx, "email")
			return domain.ErrEmailInUse
		}
	}
	return nil
}

// duplicateToConflict maps a unique index violation that slipped past the
// pre-checks onto the matching domain error.
func (s *Service) duplicateToConflict(ctx context.Context, err error, ownerID snowflake.ID, f fields, excludeID *snowflake.ID) error {
	if !db.IsDuplicateKeyErr(err) {
		return err
	}

	target := db.DuplicateKeyTarget(err)
	switch {
	case strings.Contains(target, "document"):
		s.metrics.RecordCustomerConflict(ctx, "document")
		return domain.ErrDocumentInUse
	case strings.Contains(target, "email"):
		s.metrics.RecordCustomerConflict(ctx, "email")
		return domain.ErrEmailInUse
	}

	// Translated driver errors drop the constraint name.
	if conflict := s.checkConflicts(ctx, ownerID, f, excludeID); conflict != nil {
		if errors.Is(conflict, domain.ErrDocumentInUse) || errors.Is(conflict, domain.ErrEmailInUse) {
			return conflict
		}
	}
	return err
}

func normalize(name, email, phone, document, address, notes string, birthDate *time.Time) (fields, error) {
	f := fields{
		name:     strings.TrimSpace(name),
		email:    optional(normalizeEmail(email)),
		phone:    optional(phone),
		document: optional(document),
		address:  optional(address),
		notes:    optional(notes),
	}
	if f.name == "" {
		return fields{}, domain.ErrInvalidName
	}
	if birthDate != nil {
		d := datatypes.Date(time.Date(birthDate.Year(), birthDate.Month(), birthDate.Day(), 0, 0, 0, 0, time.UTC))
		f.birthDate = &d
	}
	return f, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
