package stubapi

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Janitor periodically drops expired refresh sessions and empties carts that
// have sat untouched past their TTL.
type Janitor struct {
	cron    *cron.Cron
	store   *Store
	cartTTL time.Duration
	log     zerolog.Logger
}

func NewJanitor(store *Store, cartTTL time.Duration, log zerolog.Logger) *Janitor {
	return &Janitor{
		cron:    cron.New(cron.WithSeconds()),
		store:   store,
		cartTTL: cartTTL,
		log:     log,
	}
}

func (j *Janitor) Start(spec string) error {
	if _, err := j.cron.AddFunc(spec, j.sweep); err != nil {
		return err
	}
	j.cron.Start()
	return nil
}

// Stop waits for a running sweep to finish, up to a short grace period.
func (j *Janitor) Stop() {
	ctx := j.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		j.log.Warn().Msg("janitor stop timed out")
	}
}

func (j *Janitor) sweep() {
	sessions := j.store.PurgeExpiredSessions()
	carts := j.store.PurgeStaleCarts(j.cartTTL)
	if sessions > 0 || carts > 0 {
		j.log.Info().Int("sessions", sessions).Int("carts", carts).Msg("janitor sweep")
	}
}
