package notification

import (
	"context"
	"log"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// FCMService sends push notifications via Firebase Cloud Messaging.
// Nil-safe: when credentials are missing every send is a silent no-op,
// so the engine keeps working with push delivery disabled.
type FCMService struct {
	client *messaging.Client
}

// NewFCMService creates a new FCM push service
func NewFCMService(credentialsFile string) (*FCMService, error) {
	if credentialsFile == "" {
		log.Println("⚠️ Firebase credentials not provided, push notifications disabled")
		return nil, nil
	}

	opt := option.WithCredentialsFile(credentialsFile)
	app, err := firebase.NewApp(context.Background(), nil, opt)
	if err != nil {
		// Log warning instead of error to not block server startup
		log.Printf("⚠️ Failed to initialize Firebase app: %v (push notifications disabled)", err)
		return nil, nil
	}

	client, err := app.Messaging(context.Background())
	if err != nil {
		log.Printf("⚠️ Failed to get messaging client: %v", err)
		return nil, nil
	}

	log.Println("✅ Firebase FCM initialized")
	return &FCMService{client: client}, nil
}

// Send delivers one push message to a single device token. Failure is
// logged and reported as false; it never aborts the caller.
func (s *FCMService) Send(ctx context.Context, token, title, body string, data map[string]string) bool {
	if s == nil || s.client == nil {
		return false
	}

	message := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
				},
			},
		},
	}

	if _, err := s.client.Send(ctx, message); err != nil {
		log.Printf("⚠️ FCM send failed for token %s: %v", token, err)
		return false
	}
	return true
}

// SendToTokens delivers the same push to every token and returns the
// number of successful deliveries
func (s *FCMService) SendToTokens(ctx context.Context, tokens []string, title, body string, data map[string]string) int {
	sent := 0
	for _, token := range tokens {
		if s.Send(ctx, token, title, body, data) {
			sent++
		}
	}
	return sent
}
