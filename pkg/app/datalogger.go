package app

import (
	"encoding/json"
	"errors"
	"time"

	"ws3000/pkg/mqtt"
	"ws3000/pkg/ws3000"

	"github.com/womat/debug"
)

// runDatalogger polls the data source on the configured loop interval and
// fans captured packets out to the web api cache and the mqtt broker.
// Cancellation is checked at the top of each iteration: an in-flight request
// runs to its timeout before shutdown is observed, so worst case shutdown
// latency is about timeout plus retry backoff.
func (app *App) runDatalogger() {
	ticker := time.NewTicker(app.config.Station.LoopInterval)
	defer ticker.Stop()

	for {
		select {
		case <-app.quit:
			return
		default:
		}

		packet, err := app.source.GetCurrentValues()
		switch {
		case errors.Is(err, ws3000.ErrRetriesExceeded):
			// terminal: the station is gone, nothing left to poll
			debug.FatalLog.Printf("datalogger stopped: %v", err)
			close(app.shutdown)
			return
		case err != nil:
			debug.ErrorLog.Printf("get current values: %v", err)
		default:
			debug.DebugLog.Printf("packet: %v", packet.Values)

			app.current.Lock()
			app.current.packet = packet
			app.current.Unlock()

			app.sendMQTT(app.config.MQTT.Topic, packet)
		}

		select {
		case <-app.quit:
			return
		case <-ticker.C:
		}
	}
}

// sendMQTT hands a packet to the mqtt service.
func (app *App) sendMQTT(topic string, packet ws3000.Packet) {
	go func() {
		debug.TraceLog.Printf("prepare mqtt message %v", topic)

		b, err := json.Marshal(packet)
		if err != nil {
			debug.ErrorLog.Printf("sendMQTT marshal: %v", err)
			return
		}

		app.mqtt.C <- mqtt.Message{
			Qos:      0,
			Retained: true,
			Topic:    topic,
			Payload:  b,
		}
	}()
}
