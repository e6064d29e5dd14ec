package watermark

import (
	"github.com/rs/xid"

	"github.com/lakepipe/lakepipe/logger"
)

// Committer sequences batch extraction against watermark commits for one store.
// A batch is only considered processed once Commit succeeds; a crash after the merge but
// before Commit leaves the old watermark in place so the batch is re-extracted and the
// merge engine's idempotence absorbs the duplicates.
type Committer struct {
	log   logger.Logger
	store Store
}

func NewCommitter(log logger.Logger, store Store) *Committer {
	return &Committer{log: log, store: store}
}

// BeginBatch reads the current watermark and mints the token that must accompany the
// eventual commit. The returned position is the extraction lower bound; ok == false
// means no watermark exists yet and the extractor should read from the beginning.
func (c *Committer) BeginBatch(source, entity string) (since Position, ok bool, token BatchToken, err error) {
	since, ok, err = c.store.Get(source, entity)
	if err != nil {
		return
	}
	token = BatchToken{ID: xid.New().String()}
	if ok {
		token.Prior = since
	}
	c.log.Debug("begin batch ", token.ID, " for ", source, ".", entity, " since ", since.String())
	return
}

// Commit advances the watermark for a durably merged batch.
// A StaleWatermarkError from the store is passed straight through - the caller must
// abandon the batch and re-extract rather than retry.
func (c *Committer) Commit(source, entity string, pos Position, token BatchToken) error {
	return c.store.Commit(source, entity, pos, token)
}
