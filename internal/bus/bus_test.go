package bus

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/mtzanidakis/skopos/internal/config"
	"github.com/mtzanidakis/skopos/internal/event"
)

func newTestBus(t *testing.T) *Bus {
	t.Helper()
	bus, err := New(config.BusConfig{
		Port:    0, // Random port
		DataDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("failed to create bus: %v", err)
	}
	t.Cleanup(bus.Close)
	return bus
}

func TestBusStartStop(t *testing.T) {
	bus := newTestBus(t)
	if bus.ClientURL() == "" {
		t.Fatal("expected non-empty client URL")
	}
}

func TestPubSub(t *testing.T) {
	bus := newTestBus(t)

	client, err := NewClient(bus)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	defer client.Close()

	received := make(chan string, 1)
	_, err = client.Subscribe("test.topic", func(msg *nats.Msg) {
		received <- string(msg.Data)
	})
	if err != nil {
		t.Fatalf("subscribe error: %v", err)
	}

	if err := client.Publish("test.topic", []byte("hello")); err != nil {
		t.Fatalf("publish error: %v", err)
	}
	client.Flush()

	select {
	case data := <-received:
		if data != "hello" {
			t.Errorf("expected 'hello', got '%s'", data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestClientFromURL(t *testing.T) {
	bus := newTestBus(t)

	// An external process joins the bus by URL instead of embedding it.
	client, err := NewClientFromURL(bus.ClientURL())
	if err != nil {
		t.Fatalf("failed to connect by URL: %v", err)
	}
	defer client.Close()

	received := make(chan string, 1)
	_, err = client.Subscribe("test.topic", func(msg *nats.Msg) {
		received <- string(msg.Data)
	})
	if err != nil {
		t.Fatalf("subscribe error: %v", err)
	}

	if err := client.Publish("test.topic", []byte("remote")); err != nil {
		t.Fatalf("publish error: %v", err)
	}
	client.Flush()

	select {
	case data := <-received:
		if data != "remote" {
			t.Errorf("expected 'remote', got '%s'", data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestRelayPublishEvent(t *testing.T) {
	bus := newTestBus(t)

	client, err := NewClient(bus)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	defer client.Close()

	received := make(chan []byte, 1)
	_, err = client.Subscribe(TopicMissionEvents("m1"), func(msg *nats.Msg) {
		received <- msg.Data
	})
	if err != nil {
		t.Fatalf("subscribe error: %v", err)
	}

	relay := NewRelay(client, "m1")
	relay.PublishEvent(event.AgentStatus{AgentID: "iris", Status: event.StatusWorking})
	client.Flush()

	select {
	case data := <-received:
		var env struct {
			Mission string     `json:"mission"`
			Type    event.Kind `json:"type"`
			Payload struct {
				AgentID string `json:"agent_id"`
				Status  string `json:"status"`
			} `json:"payload"`
		}
		if err := json.Unmarshal(data, &env); err != nil {
			t.Fatalf("unmarshal envelope: %v", err)
		}
		if env.Mission != "m1" || env.Type != event.KindAgentStatus {
			t.Errorf("unexpected envelope: %+v", env)
		}
		if env.Payload.AgentID != "iris" || env.Payload.Status != "working" {
			t.Errorf("unexpected payload: %+v", env.Payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for relayed event")
	}
}

func TestTopicNames(t *testing.T) {
	if got := TopicMissionEvents("m1"); got != "mission.m1.events" {
		t.Errorf("expected mission.m1.events, got %s", got)
	}
	if got := TopicMissionStatus("m1"); got != "mission.m1.status" {
		t.Errorf("expected mission.m1.status, got %s", got)
	}
}
