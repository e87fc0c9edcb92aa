package application

import (
	"brightline.video/relay/internal/config"
	"github.com/hibiken/asynq"
)

// RedisOpt builds the asynq redis connection options from config.
func RedisOpt(conf config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: conf.RedisAddr}
}

// NewQueueClient creates the asynq client used to enqueue pipeline jobs.
// Callers own the returned client and must Close it on shutdown.
func NewQueueClient(conf config.Config) *asynq.Client {
	return asynq.NewClient(RedisOpt(conf))
}
