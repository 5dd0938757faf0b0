package connectors

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/kestrelpay/switchboard-backend/pkg/enums"
	pkgerrors "github.com/kestrelpay/switchboard-backend/pkg/errors"
)

// AuthorizeRequest carries everything an adapter needs to authorize (and,
// for automatic capture, settle) a payment attempt.
type AuthorizeRequest struct {
	MerchantID    string
	PaymentID     string
	AttemptID     string
	AmountMinor   int64
	Currency      enums.Currency
	CaptureMethod enums.CaptureMethod
	CardReference *string
}

// CaptureRequest settles a previously authorized transaction.
type CaptureRequest struct {
	MerchantID             string
	PaymentID              string
	ConnectorTransactionID string
	AmountMinor            int64
	Currency               enums.Currency
}

// VoidRequest cancels an authorized, uncaptured transaction.
type VoidRequest struct {
	MerchantID             string
	PaymentID              string
	ConnectorTransactionID string
	CancellationReason     *string
}

// SyncRequest fetches the current processor-side state of a transaction.
type SyncRequest struct {
	MerchantID             string
	PaymentID              string
	ConnectorTransactionID string
	ForceSync              bool
}

// TransactionResult is the normalized outcome of any connector call. A
// declined transaction is a successful call with a failure status, not an
// error; errors are reserved for transport and processor faults.
type TransactionResult struct {
	Status                 enums.AttemptStatus
	ConnectorTransactionID *string
	ErrorCode              *string
	ErrorMessage           *string
}

// Connector is the processor-facing surface the pipeline's domain phase
// drives. Adapters normalize processor statuses into attempt statuses.
type Connector interface {
	Name() string
	Authorize(ctx context.Context, req AuthorizeRequest) (*TransactionResult, error)
	Capture(ctx context.Context, req CaptureRequest) (*TransactionResult, error)
	Void(ctx context.Context, req VoidRequest) (*TransactionResult, error)
	Sync(ctx context.Context, req SyncRequest) (*TransactionResult, error)
}

// Registry resolves connector adapters by name.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Connector
}

func NewRegistry(adapters ...Connector) *Registry {
	r := &Registry{byName: make(map[string]Connector, len(adapters))}
	for _, adapter := range adapters {
		r.Register(adapter)
	}
	return r
}

func (r *Registry) Register(adapter Connector) {
	if adapter == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[normalizeName(adapter.Name())] = adapter
}

// Resolve returns the adapter registered under name. Unknown names are a
// request problem, not an infrastructure one.
func (r *Registry) Resolve(name string) (Connector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	adapter, ok := r.byName[normalizeName(name)]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported connector %q", name))
	}
	return adapter, nil
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
