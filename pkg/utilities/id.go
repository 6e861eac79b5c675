package utilities

import (
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/segmentio/ksuid"
)

var (
	nodeMu sync.Mutex
	node   *snowflake.Node
)

// NewKSUID generates a new globally unique KSUID string.
func NewKSUID() string {
	return ksuid.New().String()
}

// NewUUID returns a random (v4) UUID string used as a record primary key.
func NewUUID() string {
	return uuid.NewString()
}

// SetSnowflakeNode configures the node used by NewSnowflakeID. Call once at startup.
func SetSnowflakeNode(nodeID int64) error {
	n, err := snowflake.NewNode(nodeID)
	if err != nil {
		return err
	}
	nodeMu.Lock()
	node = n
	nodeMu.Unlock()
	return nil
}

// NewSnowflakeID generates a snowflake ID string. When no node was configured
// node 1 is used; if that cannot be set up it falls back to a KSUID.
func NewSnowflakeID() string {
	nodeMu.Lock()
	n := node
	if n == nil {
		var err error
		n, err = snowflake.NewNode(1)
		if err != nil {
			nodeMu.Unlock()
			return NewKSUID()
		}
		node = n
	}
	nodeMu.Unlock()
	return n.Generate().String()
}
