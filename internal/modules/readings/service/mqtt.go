package service

import (
	"log/slog"
	"net/url"

	"radmon-server/internal/metrics"
	"radmon-server/internal/mqtt"
)

// RegisterMQTTHandler feeds bridge telemetry through the same ingestion path
// as HTTP writes: alias defaulting, allow-list, receipt timestamp. The bridge
// has no connection address, so client_ip stays UNKNOWN.
func RegisterMQTTHandler(subscriber mqtt.MQTTSubscriber, svc *Service) {
	subscriber.SetMessageHandler(func(telemetry mqtt.Telemetry) error {
		params := url.Values{}
		setIfPresent(params, "ID", telemetry.DeviceID)
		setIfPresent(params, "CPM", telemetry.CPM.String())
		setIfPresent(params, "ACPM", telemetry.ACPM.String())
		setIfPresent(params, "USV", telemetry.USV.String())
		setIfPresent(params, "dose", telemetry.Dose.String())

		outcome, err := svc.Ingest(params, "UNKNOWN")
		if err != nil {
			return err
		}
		if outcome == Forbidden {
			slog.Info("mqtt device rejected by allow-list", "device_id", telemetry.DeviceID)
			metrics.ReadingsRejected.Inc()
			return nil
		}
		metrics.ReadingsIngested.Inc()
		return nil
	})
}

func setIfPresent(params url.Values, key, value string) {
	if value != "" {
		params.Set(key, value)
	}
}
