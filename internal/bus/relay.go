package bus

import (
	"log/slog"

	"github.com/mtzanidakis/skopos/internal/event"
	"github.com/mtzanidakis/skopos/internal/mission"
)

// Envelope is the wire form of a relayed event.
type Envelope struct {
	Mission string     `json:"mission"`
	Type    event.Kind `json:"type"`
	Payload any        `json:"payload"`
}

// Relay publishes mission events and terminal status changes to the bus.
// Publishing is best-effort: a slow or absent consumer never stalls the
// stream pipeline.
type Relay struct {
	client    *Client
	missionID string
}

func NewRelay(client *Client, missionID string) *Relay {
	return &Relay{client: client, missionID: missionID}
}

// PublishEvent relays one normalized stream event. Wire this into the
// connection manager's OnEvent hook.
func (r *Relay) PublishEvent(ev event.StreamEvent) {
	env := Envelope{Mission: r.missionID, Type: ev.Kind(), Payload: ev}
	if err := r.client.PublishJSON(TopicMissionEvents(r.missionID), env); err != nil {
		slog.Warn("relay publish failed", "mission", r.missionID, "error", err)
	}
}

// PublishStatus relays the mission's lifecycle status.
func (r *Relay) PublishStatus(status mission.Status) {
	env := map[string]string{"mission": r.missionID, "status": string(status)}
	if err := r.client.PublishJSON(TopicMissionStatus(r.missionID), env); err != nil {
		slog.Warn("relay publish failed", "mission", r.missionID, "error", err)
	}
}
