// Package snapshot mirrors reconciled account balances into Firestore so
// dashboards read derived state without touching the ledger store. The mirror
// is write-only from the assistant's side; the ledger remains the source of
// truth and the mirror is rebuilt wholesale on every publish.
package snapshot

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/brenocwb02/contasbot/internal/domain"
)

// collection holds one document per account, keyed by normalized name.
const collection = "finance-snapshots"

// Client wraps Firestore with snapshot-specific operations.
type Client struct {
	Firestore *firestore.Client
	Auth      *auth.Client
	projectID string
}

// NewClient initializes a Firebase app for the project and opens Firestore
// and Auth clients. credentialsFile may be empty to use Application Default
// Credentials.
func NewClient(ctx context.Context, projectID, credentialsFile string) (*Client, error) {
	conf := &firebase.Config{ProjectID: projectID}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	firestoreClient, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		firestoreClient.Close()
		return nil, fmt.Errorf("failed to create Auth client: %w", err)
	}

	return &Client{
		Firestore: firestoreClient,
		Auth:      authClient,
		projectID: projectID,
	}, nil
}

// Close closes the Firestore client.
func (c *Client) Close() error {
	return c.Firestore.Close()
}

// Record is one account's mirrored balance document.
type Record struct {
	AccountKey          string    `firestore:"accountKey"`
	Kind                string    `firestore:"kind"`
	Balance             float64   `firestore:"balance"`
	CurrentCycleInvoice float64   `firestore:"currentCycleInvoice"`
	TotalPending        float64   `firestore:"totalPending"`
	UpdatedAt           time.Time `firestore:"updatedAt"`
}

// Publish overwrites the mirror with the given reconciled snapshots. Each
// account document is replaced; documents are never partially updated, so a
// reader sees either the previous reconciliation or this one per account.
func (c *Client) Publish(ctx context.Context, snapshots map[string]domain.Snapshot) error {
	now := time.Now()
	batch := c.Firestore.BulkWriter(ctx)

	for key, snapshot := range snapshots {
		record := Record{
			AccountKey:          key,
			Kind:                string(snapshot.Kind),
			Balance:             snapshot.Balance(),
			CurrentCycleInvoice: snapshot.CurrentCycleInvoice,
			TotalPending:        snapshot.TotalPending,
			UpdatedAt:           now,
		}
		if _, err := batch.Set(c.Firestore.Collection(collection).Doc(key), record); err != nil {
			batch.End()
			return fmt.Errorf("failed to enqueue snapshot for %s: %w", key, err)
		}
	}

	batch.End()
	return nil
}

// Records reads the whole mirror back, for the ops CLI's summary view.
func (c *Client) Records(ctx context.Context) ([]*Record, error) {
	iter := c.Firestore.Collection(collection).
		OrderBy("accountKey", firestore.Asc).
		Documents(ctx)

	var records []*Record
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate snapshots: %w", err)
		}

		var record Record
		if err := doc.DataTo(&record); err != nil {
			return nil, fmt.Errorf("failed to parse snapshot document: %w", err)
		}
		records = append(records, &record)
	}

	return records, nil
}
