package mqtt

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a real broker when TEST_MQTT_BROKER_URL is set.
func TestBroker_CommandRoundTrip(t *testing.T) {
	url := os.Getenv("TEST_MQTT_BROKER_URL")
	if url == "" {
		t.Skip("TEST_MQTT_BROKER_URL not set, skipping MQTT broker test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	screen, err := Connect(ctx, url, "signton-test-screen")
	if err != nil {
		t.Skipf("MQTT broker not available, skipping test: %v", err)
	}
	defer screen.Close()
	admin, err := Connect(ctx, url, "signton-test-admin")
	require.NoError(t, err)
	defer admin.Close()

	received := make(chan Command, 4)
	require.NoError(t, screen.Subscribe("test-device-123", func(cmd Command) { received <- cmd }))

	require.NoError(t, admin.Broadcast(ctx, []string{"test-device-123", "test-device-456"}, Command{Type: CommandNext}))
	select {
	case cmd := <-received:
		assert.Equal(t, CommandNext, cmd.Type)
		assert.NotZero(t, cmd.SentAt)
	case <-ctx.Done():
		t.Fatal("command never arrived")
	}
}
