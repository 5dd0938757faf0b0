// Package customers manages merchant-scoped customer records: idempotent
// creation, profile updates, listing, and redaction. Deletion never removes
// rows; it overwrites PII and wipes the customer's vaulted cards.
package customers

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kestrelpay/switchboard-backend/internal/storage"
	"github.com/kestrelpay/switchboard-backend/internal/vault"
	"github.com/kestrelpay/switchboard-backend/pkg/audit"
	"github.com/kestrelpay/switchboard-backend/pkg/db/models"
	"github.com/kestrelpay/switchboard-backend/pkg/enums"
	pkgerrors "github.com/kestrelpay/switchboard-backend/pkg/errors"
	"github.com/kestrelpay/switchboard-backend/pkg/logger"
	"github.com/kestrelpay/switchboard-backend/pkg/pagination"
)

const customerNaturalKeyConstraint = "ux_customers_customer_merchant"

type Service struct {
	store storage.Store
	audit *audit.Service
	vault *vault.Client
	logg  *logger.Logger
}

func NewService(store storage.Store, auditService *audit.Service, vaultClient *vault.Client, logg *logger.Logger) *Service {
	return &Service{
		store: store,
		audit: auditService,
		vault: vaultClient,
		logg:  logg,
	}
}

// CreateRequest carries the caller-supplied customer fields. An empty
// CustomerID gets a generated identifier.
type CreateRequest struct {
	CustomerID       string          `json:"customer_id"`
	Name             *string         `json:"name"`
	Email            *string         `json:"email"`
	Phone            *string         `json:"phone"`
	PhoneCountryCode *string         `json:"phone_country_code"`
	Description      *string         `json:"description"`
	Metadata         json.RawMessage `json:"metadata"`
}

// UpdateRequest carries the mutable profile fields. Nil fields stay untouched.
type UpdateRequest struct {
	Name             *string `json:"name"`
	Email            *string `json:"email"`
	Phone            *string `json:"phone"`
	PhoneCountryCode *string `json:"phone_country_code"`
	Description      *string `json:"description"`
}

// ListResult is one page of customers plus the cursor for the next page.
type ListResult struct {
	Customers  []models.Customer
	NextCursor string
}

// Create inserts the customer or returns the existing row when the natural
// key already exists. A replay never overwrites stored fields.
func (s *Service) Create(ctx context.Context, merchantID string, req CreateRequest) (*models.Customer, bool, error) {
	customerID := strings.TrimSpace(req.CustomerID)
	if customerID == "" {
		customerID = "cus_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	}

	row := &models.Customer{
		ID:               uuid.New(),
		CustomerID:       customerID,
		MerchantID:       merchantID,
		Name:             req.Name,
		Email:            req.Email,
		Phone:            req.Phone,
		PhoneCountryCode: req.PhoneCountryCode,
		Description:      req.Description,
		Metadata:         req.Metadata,
	}

	customer, created, err := storage.InsertOrFetch(ctx, customerNaturalKeyConstraint,
		func(ctx context.Context) (*models.Customer, error) {
			return s.store.InsertCustomer(ctx, nil, row)
		},
		func(ctx context.Context) (*models.Customer, error) {
			return s.store.FindCustomer(ctx, customerID, merchantID)
		},
	)
	if err != nil {
		return nil, false, err
	}

	if created {
		err = s.store.WithTx(ctx, func(tx *gorm.DB) error {
			return s.audit.Emit(ctx, tx, audit.DomainEvent{
				EventType:     enums.AuditCustomerCreated,
				AggregateType: enums.AggregateCustomer,
				AggregateID:   customer.CustomerID,
				MerchantID:    merchantID,
				Data: map[string]any{
					"customer_id": customer.CustomerID,
					"has_email":   customer.Email != nil,
				},
				Version: 1,
			})
		})
		if err != nil {
			return nil, false, err
		}
	}

	if s.logg != nil {
		logCtx := s.logg.WithMerchantID(ctx, merchantID)
		if created {
			s.logg.Info(logCtx, "customer created")
		} else {
			s.logg.Info(logCtx, "customer create replayed")
		}
	}
	return customer, created, nil
}

func (s *Service) Retrieve(ctx context.Context, merchantID, customerID string) (*models.Customer, error) {
	if strings.TrimSpace(customerID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer_id is required")
	}
	return s.store.FindCustomer(ctx, customerID, merchantID)
}

func (s *Service) Update(ctx context.Context, merchantID, customerID string, req UpdateRequest) (*models.Customer, error) {
	if strings.TrimSpace(customerID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer_id is required")
	}
	return s.store.UpdateCustomer(ctx, nil, customerID, merchantID, storage.CustomerDetailsUpdate{
		Name:             req.Name,
		Email:            req.Email,
		Phone:            req.Phone,
		PhoneCountryCode: req.PhoneCountryCode,
		Description:      req.Description,
	})
}

// List pages newest-first. The returned cursor is opaque to callers.
func (s *Service) List(ctx context.Context, merchantID string, params pagination.Params) (*ListResult, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)

	customers, err := s.store.ListCustomers(ctx, merchantID, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, err
	}

	result := &ListResult{Customers: customers}
	if len(customers) > limit {
		result.Customers = customers[:limit]
		last := result.Customers[limit-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return result, nil
}

// Redact overwrites the customer's PII and the PII on every address tied to
// the customer, then appends the audit event, all in one transaction. Vaulted
// cards are wiped first so a vault outage fails the request before any data
// is lost. A customer with active mandates cannot be redacted.
func (s *Service) Redact(ctx context.Context, merchantID, customerID string) error {
	if strings.TrimSpace(customerID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer_id is required")
	}
	if _, err := s.store.FindCustomer(ctx, customerID, merchantID); err != nil {
		return err
	}

	mandates, err := s.store.FindActiveMandates(ctx, customerID, merchantID)
	if err != nil {
		return err
	}
	if len(mandates) > 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			"customer has active mandates and cannot be redacted").
			WithDetails(map[string]string{"customer_id": customerID})
	}

	if s.vault != nil {
		if err := s.vault.DeleteCustomerCards(ctx, merchantID, customerID); err != nil {
			return err
		}
	}

	err = s.store.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.store.UpdateCustomer(ctx, tx, customerID, merchantID, storage.CustomerRedactionUpdate{}); err != nil {
			return err
		}
		if err := s.store.RedactCustomerAddresses(ctx, tx, customerID, merchantID); err != nil {
			return err
		}
		return s.audit.Emit(ctx, tx, audit.DomainEvent{
			EventType:     enums.AuditCustomerRedacted,
			AggregateType: enums.AggregateCustomer,
			AggregateID:   customerID,
			MerchantID:    merchantID,
			Data:          map[string]any{"customer_id": customerID},
			Version:       1,
		})
	})
	if err != nil {
		return err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithMerchantID(ctx, merchantID), "customer redacted")
	}
	return nil
}
