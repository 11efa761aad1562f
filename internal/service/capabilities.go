package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/nearbuyapp/api-nearbuy/internal/model"
	"github.com/nearbuyapp/api-nearbuy/pkg/oracle"
)

// Dispatcher delivers one push message to every given device token and
// reports how many deliveries succeeded. Failures never abort the
// triggering operation. Implemented by pkg/notification.FCMService.
type Dispatcher interface {
	SendToTokens(ctx context.Context, tokens []string, title, body string, data map[string]string) int
}

// Predictor answers whether a product is sold at a store.
// Implemented by pkg/oracle.Client; queried only on cache miss.
type Predictor interface {
	Check(ctx context.Context, product, store string) (*oracle.Prediction, error)
}

// AlertPublisher mirrors fired alerts to the realtime feed
type AlertPublisher interface {
	PublishAlert(userID uuid.UUID, event model.AlertEvent)
}
