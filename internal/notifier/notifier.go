package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mbravoz/drop-storefront/internal/domain"
	"github.com/mbravoz/drop-storefront/internal/mail"
)

type Mailer interface {
	Send(ctx context.Context, msg mail.Message) error
}

// Notifier consumes order.paid events and emails the shop owner about
// each sale. It runs in the worker binary, off the buyer's request
// path.
type Notifier struct {
	mailer     Mailer
	ownerEmail string
	logger     *slog.Logger
}

func New(mailer Mailer, ownerEmail string, logger *slog.Logger) *Notifier {
	return &Notifier{
		mailer:     mailer,
		ownerEmail: ownerEmail,
		logger:     logger,
	}
}

func (n *Notifier) Handle(ctx context.Context, payload []byte) error {
	var event domain.OrderPaidEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("decode order.paid event: %w", err)
	}

	msg, err := mail.OwnerSale(event)
	if err != nil {
		return err
	}
	msg.To = n.ownerEmail

	if err := n.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify owner about order %s: %w", event.OrderID, err)
	}

	n.logger.Info("owner notified",
		slog.String("order_id", event.OrderID),
		slog.Int("numero_serie", event.NumeroSerie),
	)

	return nil
}
