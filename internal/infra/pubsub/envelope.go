package pubsub

import (
	"encoding/base64"
	"encoding/json"

	"wallet/internal/errors"
)

// PushEnvelope is the body of a Pub/Sub push request.
type PushEnvelope struct {
	Message struct {
		Data        string            `json:"data"`
		Attributes  map[string]string `json:"attributes,omitempty"`
		MessageID   string            `json:"messageId"`
		PublishTime string            `json:"publishTime"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// Decode unmarshals the base64 JSON payload into v.
func (e *PushEnvelope) Decode(v any) error {
	data, err := base64.StdEncoding.DecodeString(e.Message.Data)
	if err != nil {
		return errors.Wrap(err, "decode message data")
	}

	return errors.Wrap(json.Unmarshal(data, v), "decode message payload")
}

// Attribute returns the message attribute key, or "".
func (e *PushEnvelope) Attribute(key string) string {
	return e.Message.Attributes[key]
}
