package utilities

import (
	"testing"

	"github.com/google/uuid"
	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSnowflakeIDUnique(t *testing.T) {
	require.NoError(t, SetSnowflakeNode(3))
	seen := make(map[string]struct{}, 500)
	for i := 0; i < 500; i++ {
		id := NewSnowflakeID()
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

func TestSetSnowflakeNodeRejectsOutOfRange(t *testing.T) {
	assert.Error(t, SetSnowflakeNode(-1))
	assert.Error(t, SetSnowflakeNode(1<<20))
}

func TestRecordAndTokenIDsParse(t *testing.T) {
	_, err := uuid.Parse(NewUUID())
	assert.NoError(t, err)
	_, err = ksuid.Parse(NewKSUID())
	assert.NoError(t, err)
}
