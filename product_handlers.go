package eventstream

import (
	"context"

	"github.com/coregx/eventstream/model"
	"github.com/coregx/eventstream/retry"
)

// ProductCreatedHandler reacts to PRODUCT_CREATED events. It logs the change
// in a structured form; cache-invalidation and search-index hooks plug in
// here later.
type ProductCreatedHandler struct {
	BaseHandler
}

// NewProductCreatedHandler creates the handler. Pass retry.DefaultPolicy()
// unless the deployment tunes the backoff base.
func NewProductCreatedHandler(logger Logger, policy retry.Policy) *ProductCreatedHandler {
	return &ProductCreatedHandler{
		BaseHandler: NewBaseHandler("ProductCreatedHandler", logger, policy),
	}
}

// Channel implements EventHandler.
func (h *ProductCreatedHandler) Channel() string { return model.ChannelProduct }

// EventType implements EventHandler.
func (h *ProductCreatedHandler) EventType() model.EventType { return model.EventTypeProductCreated }

// Handle implements EventHandler.
func (h *ProductCreatedHandler) Handle(ctx context.Context, evt model.Event) error {
	return h.Execute(ctx, evt, func(context.Context) error {
		var p model.ProductCreatedPayload
		if err := evt.DecodePayload(&p); err != nil {
			return err
		}
		h.logger.Infof("Product created: productId=%s, name=%s, price=%.2f, category=%s, eventId=%s",
			p.ProductID, p.Name, p.Price, p.Category, evt.EventID)
		return nil
	})
}

// ProductUpdatedHandler reacts to PRODUCT_UPDATED events.
type ProductUpdatedHandler struct {
	BaseHandler
}

// NewProductUpdatedHandler creates the handler.
func NewProductUpdatedHandler(logger Logger, policy retry.Policy) *ProductUpdatedHandler {
	return &ProductUpdatedHandler{
		BaseHandler: NewBaseHandler("ProductUpdatedHandler", logger, policy),
	}
}

// Channel implements EventHandler.
func (h *ProductUpdatedHandler) Channel() string { return model.ChannelProduct }

// EventType implements EventHandler.
func (h *ProductUpdatedHandler) EventType() model.EventType { return model.EventTypeProductUpdated }

// Handle implements EventHandler.
func (h *ProductUpdatedHandler) Handle(ctx context.Context, evt model.Event) error {
	return h.Execute(ctx, evt, func(context.Context) error {
		var p model.ProductUpdatedPayload
		if err := evt.DecodePayload(&p); err != nil {
			return err
		}
		h.logger.Infof("Product updated: productId=%s, changedFields=%d, eventId=%s",
			p.ProductID, len(p.Changes), evt.EventID)
		return nil
	})
}

// ProductDeletedHandler reacts to PRODUCT_DELETED events.
type ProductDeletedHandler struct {
	BaseHandler
}

// NewProductDeletedHandler creates the handler.
func NewProductDeletedHandler(logger Logger, policy retry.Policy) *ProductDeletedHandler {
	return &ProductDeletedHandler{
		BaseHandler: NewBaseHandler("ProductDeletedHandler", logger, policy),
	}
}

// Channel implements EventHandler.
func (h *ProductDeletedHandler) Channel() string { return model.ChannelProduct }

// EventType implements EventHandler.
func (h *ProductDeletedHandler) EventType() model.EventType { return model.EventTypeProductDeleted }

// Handle implements EventHandler.
func (h *ProductDeletedHandler) Handle(ctx context.Context, evt model.Event) error {
	return h.Execute(ctx, evt, func(context.Context) error {
		var p model.ProductDeletedPayload
		if err := evt.DecodePayload(&p); err != nil {
			return err
		}
		h.logger.Infof("Product deleted: productId=%s, eventId=%s", p.ProductID, evt.EventID)
		return nil
	})
}
