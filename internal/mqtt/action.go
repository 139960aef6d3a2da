package mqtt

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/sweeney/pinscan/internal/pins"
)

// PublishAction returns a pins.Action publishing every transition of the
// named sensor. Publish errors are logged and otherwise ignored.
func PublishAction(p Publisher, name string, now func() time.Time, log zerolog.Logger) pins.Action {
	return func(channel int, value uint) {
		event := PinEvent{
			Timestamp: now(),
			Name:      name,
			Channel:   channel,
			Value:     value,
		}
		if err := p.Publish(event); err != nil {
			log.Warn().Err(err).Str("sensor", name).Msg("publish failed")
		}
	}
}
