package dispatch

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"payorch.backend/internal/domain/entities"
)

func generateMsgID() string { return uuid.NewString() }

// Dispatcher implements steps.Dispatcher, routing each payment's response
// to one of the three delivery mechanisms per its payment type's
// ResponseMode. A single instance is shared by every tenant; per-mode
// configuration (callback URL, topic) comes from the tenant config itself.
type Dispatcher struct {
	tenants  TenantConfigProvider
	waiters  *WaiterRegistry
	callback *CallbackDispatcher
	kafka    *KafkaDispatcher
	log      *zap.Logger
}

func NewDispatcher(tenants TenantConfigProvider, waiters *WaiterRegistry, callback *CallbackDispatcher, kafka *KafkaDispatcher, log *zap.Logger) *Dispatcher {
	return &Dispatcher{tenants: tenants, waiters: waiters, callback: callback, kafka: kafka, log: log}
}

// Waiters exposes the registry so the Synchronous accept usecase can
// Register a payment before the saga starts executing.
func (d *Dispatcher) Waiters() *WaiterRegistry { return d.waiters }

func (d *Dispatcher) Dispatch(ctx context.Context, p *entities.Payment) error {
	cfg, err := d.tenants.GetConfig(ctx, p.TenantID)
	if err != nil {
		return fmt.Errorf("dispatch: load tenant config: %w", err)
	}
	typeCfg, ok := cfg.PaymentType(p.PaymentType)
	if !ok {
		d.log.Warn("dispatch: unknown payment type, defaulting to synchronous signal only",
			zap.String("paymentId", p.ID.String()), zap.String("paymentType", string(p.PaymentType)))
		d.waiters.Signal(p.ID)
		return nil
	}

	switch typeCfg.ResponseMode {
	case entities.ResponseModeAsynchronous:
		return d.callback.Deliver(ctx, typeCfg.AsyncConfig, p)
	case entities.ResponseModeKafkaTopic:
		return d.kafka.Publish(ctx, typeCfg.KafkaConfig, p)
	case entities.ResponseModeSynchronous, "":
		// The caller's own request goroutine is blocked on WaiterRegistry;
		// signalling it IS the delivery. Nothing goes over the wire here.
		d.waiters.Signal(p.ID)
		return nil
	default:
		return fmt.Errorf("dispatch: unknown response mode %q", typeCfg.ResponseMode)
	}
}
