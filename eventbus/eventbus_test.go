package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNoopNotifierNeverFails(t *testing.T) {
	var n Notifier = NoopNotifier{}
	err := n.Publish(context.Background(), Event{
		Kind:      EventDepositCreated,
		Provider:  "pool",
		Fields:    map[string]string{"commitment": "0x1"},
		Timestamp: time.Unix(0, 0),
	})
	assert.NoError(t, err)
}
