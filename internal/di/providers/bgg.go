package providers

import (
	"github.com/samber/do/v2"

	"github.com/renovatuludoteca/ludoteca-server/internal/bgg"
	"github.com/renovatuludoteca/ludoteca-server/internal/config"
	"github.com/renovatuludoteca/ludoteca-server/internal/logger"
	"github.com/renovatuludoteca/ludoteca-server/internal/ratelimit"
)

// BGGQueueHandle is the single process-wide BoardGameGeek request queue.
type BGGQueueHandle struct {
	*ratelimit.Queue
}

// Shutdown implements do.Shutdownable. Pending tasks fail with
// ratelimit.ErrQueueClosed.
func (h *BGGQueueHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideBGGQueue provides the throttled queue shared by every
// BoardGameGeek caller.
func ProvideBGGQueue(i do.Injector) (*BGGQueueHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	queue := ratelimit.NewQueue(ratelimit.QueueOptions{
		MinDelay: config.BGGMinDelay,
		Timeout:  cfg.BGG.RequestTimeout,
		Logger:   log.Component("bgg-queue"),
	})

	return &BGGQueueHandle{Queue: queue}, nil
}

// ProvideBGGClient provides the BoardGameGeek client bound to the shared queue.
func ProvideBGGClient(i do.Injector) (*bgg.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	queue := do.MustInvoke[*BGGQueueHandle](i)

	client := bgg.New(queue.Queue, bgg.Options{
		BaseURL:  cfg.BGG.BaseURL,
		Token:    cfg.BGG.Token,
		Username: cfg.BGG.Username,
		Timeout:  cfg.BGG.RequestTimeout,
	}, log.Component("bgg"))

	log.Info("BoardGameGeek client initialized",
		"base_url", cfg.BGG.BaseURL,
		"authenticated", cfg.BGG.Token != "",
	)

	return client, nil
}
