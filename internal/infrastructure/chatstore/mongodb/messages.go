package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tripmind/assistant/internal/core/chatstore"
	"github.com/tripmind/assistant/internal/domain/models"
	"github.com/tripmind/assistant/internal/sdui"
)

// AppendMessage stores a message, replacing one with the same ID, and moves
// the chat's preview forward. The chat hands out the message's sequence
// number, which breaks timestamp ties on load.
func (c *Client) AppendMessage(ctx context.Context, msg *models.StoredMessage) error {
	if msg == nil || msg.ID == "" {
		return fmt.Errorf("message ID is required")
	}
	if msg.ChatID == "" {
		return fmt.Errorf("chat ID is required")
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	update := bson.M{
		"$set": bson.M{
			"lastMessage": chatstore.Preview(msg.Content),
			"updatedAt":   time.Now().UTC(),
		},
		"$inc": bson.M{"messageSeq": 1},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"messageSeq": 1})

	var counter struct {
		Seq int64 `bson:"messageSeq"`
	}
	err := c.chats.FindOneAndUpdate(ctx, bson.M{"_id": msg.ChatID}, update, opts).Decode(&counter)
	switch {
	case err == nil:
		msg.Seq = counter.Seq
	case errors.Is(err, mongo.ErrNoDocuments):
		// Messages of an unknown chat are still kept; they sort by time only.
	default:
		return fmt.Errorf("failed to update chat preview: %w", err)
	}

	_, err = c.messages.ReplaceOne(ctx, bson.M{"_id": msg.ID}, msg, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to store message: %w", err)
	}
	return nil
}

// LoadMessages returns the transcript of a chat, oldest first.
func (c *Client) LoadMessages(ctx context.Context, chatID string) ([]*models.StoredMessage, error) {
	findOpts := options.Find().SetSort(bson.D{
		{Key: "timestamp", Value: 1},
		{Key: "seq", Value: 1},
	})

	cursor, err := c.messages.Find(ctx, bson.M{"chatId": chatID}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer cursor.Close(ctx)

	messages := []*models.StoredMessage{}
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}

	for _, m := range messages {
		plainComponent(m.UI)
		for i := range m.UIComponents {
			plainComponent(&m.UIComponents[i])
		}
	}
	return messages, nil
}

// plainComponent rewrites decoded props into plain maps and slices. Nested
// documents come back from the driver as primitive.D and primitive.A.
func plainComponent(c *sdui.Component) {
	if c == nil || c.Props == nil {
		return
	}
	for k, v := range c.Props {
		c.Props[k] = plainValue(v)
	}
}

func plainValue(v interface{}) interface{} {
	switch val := v.(type) {
	case primitive.D:
		m := make(map[string]interface{}, len(val))
		for _, e := range val {
			m[e.Key] = plainValue(e.Value)
		}
		return m
	case primitive.M:
		m := make(map[string]interface{}, len(val))
		for k, item := range val {
			m[k] = plainValue(item)
		}
		return m
	case map[string]interface{}:
		for k, item := range val {
			val[k] = plainValue(item)
		}
		return val
	case primitive.A:
		s := make([]interface{}, len(val))
		for i, item := range val {
			s[i] = plainValue(item)
		}
		return s
	case []interface{}:
		for i, item := range val {
			val[i] = plainValue(item)
		}
		return val
	case int32:
		return float64(val)
	case int64:
		return float64(val)
	default:
		return val
	}
}
