// Package receipt turns read events into the bulk Sent/Delivered -> Read
// transition and tells the original sender about it, once.
package receipt

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"courier/server/internal/event"
	"courier/server/internal/models"
	"courier/server/internal/presence"
	"courier/server/internal/store"
)

// Coordinator processes read receipts.
type Coordinator struct {
	store store.MessageStore
	reg   *presence.Registry
	log   *zap.SugaredLogger
}

func NewCoordinator(st store.MessageStore, reg *presence.Registry, log *zap.SugaredLogger) *Coordinator {
	return &Coordinator{store: st, reg: reg, log: log}
}

// MarkRead advances every message from sender to reader to Read and, when
// anything actually changed, notifies the sender's live connection. The
// status guard in the store makes this idempotent: a repeated call changes
// zero rows and produces no second notification, so clients may fire it on
// every conversation open.
func (c *Coordinator) MarkRead(ctx context.Context, reader, sender string) (int64, error) {
	changed, err := c.store.UpdateStatusBulk(ctx, sender, reader, models.StatusRead)
	if err != nil {
		return 0, fmt.Errorf("mark read %s by %s: %w", sender, reader, err)
	}
	if changed == 0 {
		return 0, nil
	}

	if h, ok := c.reg.Lookup(sender); ok {
		h.Send(event.New(event.TypeReadReceipt, event.ReadReceiptPayload{Reader: reader}))
	}
	c.log.Debugw("messages read", "reader", reader, "sender", sender, "count", changed)
	return changed, nil
}
