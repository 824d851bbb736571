package domain

import "time"

// SyncOp names a Sync Store operation recorded in the audit trail.
type SyncOp string

const (
	SyncOpUpsert SyncOp = "upsert"
	SyncOpFetch  SyncOp = "fetch"
	SyncOpDelete SyncOp = "delete"
)

// SyncEvent is an audit entry for one Sync Store call. It never carries
// record contents.
type SyncEvent struct {
	UserID     string
	RecordType string
	Op         SyncOp
	Count      int
	From       string // earliest time value of the batch, upserts only
	To         string // latest time value of the batch, upserts only
	At         time.Time
}

// Device message operations, carried in the "op" field of a device message.
const (
	DeviceOpPush   = "PUSH"
	DeviceOpDelete = "DELETE"
)
