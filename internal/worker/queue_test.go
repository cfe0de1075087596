package worker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueueCollapsesDuplicateOffers(t *testing.T) {
	q := NewQueue(8)
	assert.True(t, q.Offer("/inbox/a.docx"))
	assert.False(t, q.Offer("/inbox/a.docx"), "claimed path must be rejected")
	assert.True(t, q.Offer("/inbox/b.docx"))
	assert.Equal(t, 2, q.Pending())
}

func TestQueueReofferAfterDone(t *testing.T) {
	q := NewQueue(8)
	assert.True(t, q.Offer("/inbox/a.docx"))
	<-q.Chan()
	q.Done("/inbox/a.docx")
	assert.True(t, q.Offer("/inbox/a.docx"), "path can be queued again once handled")
}

func TestQueueClosedRejectsOffers(t *testing.T) {
	q := NewQueue(8)
	q.Close()
	assert.False(t, q.Offer("/inbox/a.docx"))
	assert.Equal(t, 0, q.Pending())
}

func TestQueueFullDropsInsteadOfBlocking(t *testing.T) {
	q := NewQueue(1)
	assert.True(t, q.Offer("/inbox/a.docx"))
	assert.False(t, q.Offer("/inbox/b.docx"), "full queue must not block the watcher")
	assert.Equal(t, 1, q.Pending(), "a dropped path is not claimed")
}
