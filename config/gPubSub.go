package config

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/joho/godotenv"
	"google.golang.org/api/option"
)

// ChangeEvent is the at-least-once "something changed in table X" signal.
// Consumers must treat it as a refetch hint only; no payload guarantees
// beyond business_id + table are relied upon.
type ChangeEvent struct {
	BusinessId    string    `json:"business_id"`
	Table         string    `json:"table"`
	Action        string    `json:"action"`
	ReferenceId   int       `json:"reference_id"`
	UserId        int       `json:"user_id,omitempty"`
	UserName      string    `json:"user_name,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
	CorrelationId string    `json:"correlation_id"`
}

var (
	pubsubClient   *pubsub.Client
	pubsubClientMu sync.Mutex
)

func init() {
	// Load env from .env
	godotenv.Load()
}

func getPubSubProjectID() string {
	if v := os.Getenv("PUBSUB_PROJECT_ID"); v != "" {
		return v
	}
	if v := os.Getenv("GOOGLE_CLOUD_PROJECT"); v != "" {
		return v
	}
	if v := os.Getenv("GCP_PROJECT"); v != "" {
		return v
	}
	return ""
}

func getPubSubClient(ctx context.Context) (*pubsub.Client, error) {
	pubsubClientMu.Lock()
	if pubsubClient != nil {
		c := pubsubClient
		pubsubClientMu.Unlock()
		return c, nil
	}
	pubsubClientMu.Unlock()

	projectID := getPubSubProjectID()
	if projectID == "" {
		return nil, errors.New("PUBSUB_PROJECT_ID/GOOGLE_CLOUD_PROJECT not set")
	}

	credJSON := os.Getenv("PUBSUB_CREDENTIALS_JSON")

	var (
		c   *pubsub.Client
		err error
	)
	if credJSON != "" {
		c, err = pubsub.NewClient(ctx, projectID, option.WithCredentialsJSON([]byte(credJSON)))
	} else {
		// Application Default Credentials (service account or GOOGLE_APPLICATION_CREDENTIALS).
		c, err = pubsub.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, err
	}

	pubsubClientMu.Lock()
	if pubsubClient == nil {
		pubsubClient = c
	} else {
		// Another goroutine won the race; close ours.
		_ = c.Close()
	}
	c2 := pubsubClient
	pubsubClientMu.Unlock()

	log.Printf("pubsub client ready (project_id=%s)", projectID)
	return c2, nil
}

// PublishChangeEvent publishes a table-change signal. Best effort: callers log
// failures and continue; the business operation is already committed.
func PublishChangeEvent(event ChangeEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	topicName := os.Getenv("PUBSUB_CHANGE_TOPIC")
	if topicName == "" {
		// Change notifications disabled for this deployment.
		return nil
	}

	client, err := getPubSubClient(ctx)
	if err != nil {
		return err
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	t := client.Topic(topicName)
	msgJSON, err := json.Marshal(event)
	if err != nil {
		return err
	}
	result := t.Publish(ctx, &pubsub.Message{Data: msgJSON})
	_, err = result.Get(ctx)
	return err
}
