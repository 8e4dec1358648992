package bot

import (
	"context"
	"time"

	"santabot/internal/telegram"

	"github.com/rs/zerolog/log"
)

const pollTimeoutSeconds = 30

// Poller feeds updates from the Bot API long-poll endpoint into the dispatcher
type Poller struct {
	client     *telegram.Client
	dispatcher *Dispatcher
}

// NewPoller creates a new update poller
func NewPoller(client *telegram.Client, dispatcher *Dispatcher) *Poller {
	return &Poller{client: client, dispatcher: dispatcher}
}

// Start runs the long-poll loop until the context is cancelled
func (p *Poller) Start(ctx context.Context) {
	log.Info().Msg("Telegram poller started")

	var offset int64
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Telegram poller stopped")
			return
		default:
		}

		updates, err := p.client.GetUpdates(offset, pollTimeoutSeconds)
		if err != nil {
			log.Error().Err(err).Msg("Failed to fetch updates")
			time.Sleep(3 * time.Second)
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			p.dispatcher.HandleUpdate(update)
		}
	}
}
