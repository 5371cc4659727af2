// Package mongodb implements MongoDB adapters for the application.
package mongodb

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"time"

	"jobtrack_server/core/port/out"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collectionEmailBodies = "email_bodies"

	// Only compress bodies larger than this
	compressionThreshold = 1024 // 1KB

	// Raw bodies are archival, not primary storage; they expire.
	defaultBodyTTL = 180 * 24 * time.Hour
)

// BodyAdapter implements out.EmailBodyStore using MongoDB. The relational
// store keeps only analysis output; full raw bodies live here so reprocessing
// never needs another provider fetch.
type BodyAdapter struct {
	collection *mongo.Collection
	ttl        time.Duration
}

// NewBodyAdapter creates a new MongoDB email body adapter.
func NewBodyAdapter(db *mongo.Database) *BodyAdapter {
	return &BodyAdapter{
		collection: db.Collection(collectionEmailBodies),
		ttl:        defaultBodyTTL,
	}
}

// EnsureIndexes creates necessary indexes for the collection.
func (a *BodyAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "gmail_message_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0), // TTL index
		},
	}

	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// bodyDocument represents the MongoDB document structure.
type bodyDocument struct {
	GmailMessageID string `bson:"gmail_message_id"`

	Body         []byte `bson:"body"`
	IsCompressed bool   `bson:"is_compressed"`

	OriginalSize   int64 `bson:"original_size"`
	CompressedSize int64 `bson:"compressed_size"`

	StoredAt  time.Time `bson:"stored_at"`
	ExpiresAt time.Time `bson:"expires_at"`
}

// Save archives one raw body, replacing any previous version.
func (a *BodyAdapter) Save(ctx context.Context, gmailMessageID, body string) error {
	if gmailMessageID == "" {
		return fmt.Errorf("gmail message id is required")
	}

	data := []byte(body)
	originalSize := int64(len(data))
	isCompressed := false

	if originalSize > compressionThreshold {
		compressed, err := compress(data)
		if err != nil {
			return fmt.Errorf("failed to compress body: %w", err)
		}
		data = compressed
		isCompressed = true
	}

	now := time.Now()
	doc := bodyDocument{
		GmailMessageID: gmailMessageID,
		Body:           data,
		IsCompressed:   isCompressed,
		OriginalSize:   originalSize,
		CompressedSize: int64(len(data)),
		StoredAt:       now,
		ExpiresAt:      now.Add(a.ttl),
	}

	opts := options.Replace().SetUpsert(true)
	filter := bson.M{"gmail_message_id": gmailMessageID}

	if _, err := a.collection.ReplaceOne(ctx, filter, doc, opts); err != nil {
		return fmt.Errorf("failed to save email body: %w", err)
	}
	return nil
}

// Get retrieves one archived body. Missing documents return an empty string
// without error; callers fall back to the snippet.
func (a *BodyAdapter) Get(ctx context.Context, gmailMessageID string) (string, error) {
	var doc bodyDocument
	filter := bson.M{"gmail_message_id": gmailMessageID}

	err := a.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return "", nil
		}
		return "", fmt.Errorf("failed to get email body: %w", err)
	}

	data := doc.Body
	if doc.IsCompressed {
		data, err = decompress(doc.Body)
		if err != nil {
			return "", fmt.Errorf("failed to decompress body: %w", err)
		}
	}
	return string(data), nil
}

// DeleteOlderThan removes bodies stored before the given time.
func (a *BodyAdapter) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	result, err := a.collection.DeleteMany(ctx, bson.M{"stored_at": bson.M{"$lt": before}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete old bodies: %w", err)
	}
	return result.DeletedCount, nil
}

func compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}

	var buf bytes.Buffer
	writer := gzip.NewWriter(&buf)

	if _, err := writer.Write(data); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}

	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	return io.ReadAll(reader)
}

var _ out.EmailBodyStore = (*BodyAdapter)(nil)
