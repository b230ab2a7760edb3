package events

import (
	"encoding/json"
	"fmt"

	"github.com/magnusfroste/auto-sense-sub000/internal/usecase/autotrip"
	"github.com/magnusfroste/auto-sense-sub000/pkg/mqtt"
)

// MQTTPublisher adapts the MQTT client to the trip event channel. Topics
// follow autosense/trips/<action> so consumers can subscribe per event type.
type MQTTPublisher struct {
	client *mqtt.Client
	qos    byte
}

func NewMQTTPublisher(client *mqtt.Client, qos byte) *MQTTPublisher {
	return &MQTTPublisher{client: client, qos: qos}
}

func (p *MQTTPublisher) PublishTripEvent(event autotrip.TripEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling trip event: %w", err)
	}
	topic := fmt.Sprintf("autosense/trips/%s", event.Action)
	return p.client.Publish(topic, p.qos, false, payload)
}
