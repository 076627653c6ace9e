package pubsub

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushEnvelope_Decode(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{name: "valid payload", data: base64.StdEncoding.EncodeToString([]byte(`{"eventId":"e-1"}`))},
		{name: "not base64", data: "%%%", wantErr: true},
		{name: "not json", data: base64.StdEncoding.EncodeToString([]byte("plain")), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var env PushEnvelope
			env.Message.Data = tt.data

			var out struct {
				EventID string `json:"eventId"`
			}
			err := env.Decode(&out)
			if tt.wantErr {
				assert.Error(t, err)

				return
			}
			require.NoError(t, err)
			assert.Equal(t, "e-1", out.EventID)
		})
	}
}

func TestPushEnvelope_AttributeWithoutAttributes(t *testing.T) {
	var env PushEnvelope

	assert.Empty(t, env.Attribute("request_id"))
}
