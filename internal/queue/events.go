package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types for the asset stream
const (
	EventAssetDiscarded = "asset_discarded"
)

// Stream names
const (
	StreamAssets = "stream:assets"
)

// Consumer group name for asset janitors
const (
	ConsumerGroupAssets = "asset_janitors"
)

// Discard reasons, recorded for log context only.
const (
	ReasonProfileReplaced = "profile_replaced"
	ReasonCoverReplaced   = "cover_replaced"
	ReasonPostImage       = "post_image"
	ReasonAccountDeleted  = "account_deleted"
)

// AssetEvent asks a janitor to delete a stored object that nothing references
// any more.
type AssetEvent struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
	Key       string `json:"key"`
	OwnerID   int64  `json:"owner_id,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

func NewAssetDiscardedEvent(key string, ownerID int64, reason string) AssetEvent {
	return AssetEvent{
		Type:      EventAssetDiscarded,
		Timestamp: time.Now().Unix(),
		Key:       key,
		OwnerID:   ownerID,
		Reason:    reason,
	}
}

// ToMap converts the event to XADD field-value pairs. The payload travels as
// JSON in the "data" field.
func (e AssetEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

func ParseAssetEvent(values map[string]interface{}) (AssetEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return AssetEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event AssetEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return AssetEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
