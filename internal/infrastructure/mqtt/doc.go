// Package mqtt provides MQTT client connectivity for hjemme-core.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// hjemme-core uses MQTT as the message bus between the core and the
// gateways in the home. Gateways publish sensor readings and device
// discoveries; the core publishes switch commands and canonical state.
//
// # Topic Scheme
//
//	hjemme/reading/{sensor_name}      gateway → core (sensor readings)
//	hjemme/discovery/{gateway_name}   gateway → core (discovered devices)
//	hjemme/switch/{name}/set          core → gateway (commands)
//	hjemme/switch/{name}/state        core → all (canonical state)
//	hjemme/system/status              core online/offline (retained, LWT)
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topics := mqtt.Topics{}
//	err = client.Subscribe(topics.AllReadings(), 1, func(topic string, payload []byte) error {
//	    // handle reading
//	    return nil
//	})
package mqtt
