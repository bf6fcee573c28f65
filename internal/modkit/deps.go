package modkit

import (
	"peacekeeper/internal/platform/config"
	"peacekeeper/internal/platform/logger"
	"peacekeeper/internal/platform/store"

	"github.com/redis/go-redis/v9"
)

// Deps holds the shared dependencies handed to modules
// optional stores are nil when disabled
type Deps struct {
	Log *logger.Logger
	Cfg config.Conf
	PG  store.TxRunner
	CH  store.Clickhouse
	RDS *redis.Client
}

// DepsFrom lifts an opened store into Deps
func DepsFrom(cfg config.Conf, st *store.Store) Deps {
	d := Deps{Cfg: cfg, Log: logger.Get()}
	if st == nil {
		return d
	}
	d.Log = &st.Log
	d.PG = st.PG
	d.CH = st.CH
	d.RDS = st.RDS
	return d
}

// Logger returns a component child of Log, or of the root logger when unset
func (d Deps) Logger(component string) *logger.Logger {
	if d.Log == nil {
		return logger.Named(component)
	}
	l := d.Log.With().Str("component", component).Logger()
	return &l
}
