// Package mqtt carries operator commands to screens over per-device topics.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
)

const (
	qos            = 1
	publishTimeout = 5 * time.Second
	// fanOut bounds concurrent publishes when broadcasting.
	fanOut = 8
)

type CommandType string

const (
	// CommandNext skips to the next playlist item.
	CommandNext CommandType = "next"
	// CommandRefresh re-evaluates the schedule and re-renders.
	CommandRefresh CommandType = "refresh"
	// CommandVideoEnded is sent by an external renderer when MediaID finished.
	CommandVideoEnded CommandType = "video_ended"
)

func (t CommandType) Valid() bool {
	switch t {
	case CommandNext, CommandRefresh, CommandVideoEnded:
		return true
	}
	return false
}

type Command struct {
	Type    CommandType `json:"type"`
	MediaID string      `json:"mediaId,omitempty"`
	// Cue is the epoch of the cue a video_ended refers to; zero matches by
	// MediaID alone.
	Cue     uint64      `json:"cue,omitempty"`
	SentAt  int64       `json:"sentAt"`
}

// Topic is the command topic a device subscribes to.
func Topic(deviceID string) string {
	return fmt.Sprintf("tv/%s/commands", deviceID)
}

type Client struct {
	client pahomqtt.Client

	mu sync.Mutex
	// subs is replayed on every (re)connect; a clean session drops them broker side.
	subs map[string]pahomqtt.MessageHandler
}

// Connect dials the broker, retrying while it comes up. The paho client
// reconnects on its own after that.
func Connect(ctx context.Context, brokerURL, clientID string) (*Client, error) {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(false)

	c := &Client{}
	opts.OnConnect = func(pc pahomqtt.Client) {
		log.Info().Str("broker", brokerURL).Str("client", clientID).Msg("Connected to MQTT broker")
		c.resubscribe(pc)
	}
	opts.OnConnectionLost = func(_ pahomqtt.Client, err error) {
		log.Warn().Err(err).Str("broker", brokerURL).Msg("MQTT connection lost")
	}

	c.client = pahomqtt.NewClient(opts)
	err := retry.Do(
		func() error {
			token := c.client.Connect()
			if !token.WaitTimeout(publishTimeout) {
				return fmt.Errorf("timed out connecting to %s", brokerURL)
			}
			return token.Error()
		},
		retry.Context(ctx),
		retry.Attempts(5),
		retry.Delay(time.Second),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Error().Err(err).Uint("attempt", n+1).Msg("failed to connect to MQTT broker, retrying")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}
	return c, nil
}

// Publish sends cmd to one device.
func (c *Client) Publish(deviceID string, cmd Command) error {
	if cmd.SentAt == 0 {
		cmd.SentAt = time.Now().UnixMilli()
	}
	payload, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("encode command: %w", err)
	}
	token := c.client.Publish(Topic(deviceID), qos, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to %s timed out", deviceID)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to send message to TV device %s: %w", deviceID, err)
	}
	log.Debug().Str("device", deviceID).Str("command", string(cmd.Type)).Msg("Command sent")
	return nil
}

// Broadcast sends cmd to every device in deviceIDs, a few at a time. All
// devices are attempted; the returned error joins the failures.
func (c *Client) Broadcast(ctx context.Context, deviceIDs []string, cmd Command) error {
	if cmd.SentAt == 0 {
		cmd.SentAt = time.Now().UnixMilli()
	}
	p := pool.New().WithMaxGoroutines(fanOut).WithContext(ctx)
	for _, id := range deviceIDs {
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return c.Publish(id, cmd)
		})
	}
	if err := p.Wait(); err != nil {
		return err
	}
	log.Debug().Int("devices", len(deviceIDs)).Str("command", string(cmd.Type)).Msg("Command broadcast")
	return nil
}

// Subscribe delivers commands addressed to deviceID. Malformed payloads are
// logged and dropped. The subscription is restored after a reconnect.
func (c *Client) Subscribe(deviceID string, handle func(Command)) error {
	topic := Topic(deviceID)
	handler := func(_ pahomqtt.Client, msg pahomqtt.Message) {
		var cmd Command
		if err := json.Unmarshal(msg.Payload(), &cmd); err != nil || !cmd.Type.Valid() {
			log.Warn().Err(err).Str("topic", msg.Topic()).Bytes("payload", msg.Payload()).Msg("Ignoring malformed command")
			return
		}
		handle(cmd)
	}

	c.mu.Lock()
	if c.subs == nil {
		c.subs = map[string]pahomqtt.MessageHandler{}
	}
	c.subs[topic] = handler
	c.mu.Unlock()

	return subscribe(c.client, topic, handler)
}

func (c *Client) resubscribe(pc pahomqtt.Client) {
	c.mu.Lock()
	subs := make(map[string]pahomqtt.MessageHandler, len(c.subs))
	for topic, handler := range c.subs {
		subs[topic] = handler
	}
	c.mu.Unlock()

	for topic, handler := range subs {
		if err := subscribe(pc, topic, handler); err != nil {
			log.Error().Err(err).Str("topic", topic).Msg("Failed to restore subscription")
			continue
		}
		log.Debug().Str("topic", topic).Msg("Subscription restored")
	}
}

func subscribe(pc pahomqtt.Client, topic string, handler pahomqtt.MessageHandler) error {
	token := pc.Subscribe(topic, qos, handler)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("subscribe to %s timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}
	return nil
}

func (c *Client) Close() {
	c.client.Disconnect(250)
	log.Info().Msg("MQTT client disconnected")
}
