package event

import (
	"context"
	"fmt"

	"billbridge/internal/domain/event"
	"billbridge/internal/provider"
	"billbridge/internal/store/repositories"
)

// ProviderLookup is the slice of the registry the processor needs.
type ProviderLookup interface {
	GetSubscriptionProvider(providerType provider.ProviderType) (provider.SubscriptionProvider, error)
}

// Processor applies persisted webhook events to provider state. Each
// event is routed to the provider that emitted it and marked with the
// outcome, so redeliveries and replays stay idempotent.
type Processor struct {
	eventRepo repositories.EventRepository
	providers ProviderLookup
}

// NewProcessor creates an event processor.
func NewProcessor(eventRepo repositories.EventRepository, providers ProviderLookup) *Processor {
	return &Processor{
		eventRepo: eventRepo,
		providers: providers,
	}
}

// ProcessEvent routes one event through its provider and records the
// outcome.
func (p *Processor) ProcessEvent(ctx context.Context, e *event.Event) error {
	if e.IsProcessed() {
		return nil
	}

	sub, err := p.providers.GetSubscriptionProvider(provider.ProviderType(e.Provider))
	if err != nil {
		p.markFailed(ctx, e, fmt.Sprintf("no subscription provider %s", e.Provider))
		return fmt.Errorf("event %d: %w", e.ID, err)
	}

	result := sub.ProcessWebhookEvent(ctx, e.RawJSON)
	if !result.Success {
		p.markFailed(ctx, e, result.Error.Message)
		return fmt.Errorf("event %d: %s", e.ID, result.Error.Message)
	}

	return p.eventRepo.MarkProcessed(ctx, e.ID, event.ProcessingCompleted, "")
}

func (p *Processor) markFailed(ctx context.Context, e *event.Event, reason string) {
	_ = p.eventRepo.MarkProcessed(ctx, e.ID, event.ProcessingFailed, reason)
}
