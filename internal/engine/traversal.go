package engine

// Database is the narrow read-only view of the attached database record
// the Collector walks first (§4.5).
type Database interface {
	Name() string
	FileID() string
	ShutdownMode() ShutdownMode
	BackupState() BackupState
	PageSize() int32
}

// Request is the engine's notion of a prepared statement in execution
// (a "statement" in the glossary, "request" in the traversal order of
// §4.5). Caller forms the cyclic request->caller chain that Collector
// walks read-only, by value, never by pointer (§9).
type Request interface {
	ID() int64
	IsInternal() bool
	IsSystemTrigger() bool
	Caller() Request // nil when this is a top-level request
	IOStats() IOStats
	RecStats() RecStats
}

// Transaction is one attachment's in-flight transaction.
type Transaction interface {
	ID() int64
	Isolation() IsolationMode
	ContextVars() []ContextVar
	Requests() []Request
}

// Attachment is one client session bound to the database within this
// process (glossary: Attachment).
type Attachment interface {
	ProcessID() ProcessID
	LocalID() LocalID
	UserName() string
	IsSystem() bool
	Charset() Charset
	State() State
	ContextVars() []ContextVar
	Transactions() []Transaction
	// TopLevelRequests returns requests bound directly to the attachment
	// rather than to one of its transactions (autonomous/idle statements).
	TopLevelRequests() []Request
}

// Snapshot-of-process-state the Collector walks (§4.5): the database
// record, then every user attachment, then every system attachment.
type ProcessView interface {
	Database() Database
	UserAttachments() []Attachment
	SystemAttachments() []Attachment
}
