package outbox

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatusChangedKey(t *testing.T) {
	at := time.Unix(1700000000, 42).UTC()
	assert.Equal(t, "component:7:1700000000000000042", StatusChangedKey(7, at))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "status_changed", KindStatusChanged.String())
	assert.Equal(t, "kind_9", Kind(9).String())
}
