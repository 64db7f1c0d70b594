package snapshot

import "github.com/dbengine/dbmonitor/internal/engine"

// rowFilter is the small state machine spec §4.6 describes for deciding
// which records of a decoded dump stream are visible to the requesting
// attachment: rel_database accepted at most once by name, rel_attachment
// accepted per-row by locksmith/ownership, and every other relation
// riding on whichever attachment window was most recently accepted.
type rowFilter struct {
	dbName    string
	userName  string
	locksmith bool

	dbEmitted  bool // rel_database already decided once, per spec's db_already_emitted
	dbAccepted bool
	attAccepted bool

	// attCharset is the charset of the most recently accepted attachment,
	// tracked so STRING fields of that attachment's descendants can be
	// coerced the way spec §4.6's charset-coercion rule requires.
	attCharset engine.Charset
}

func newRowFilter(dbName, userName string, locksmith bool) *rowFilter {
	return &rowFilter{dbName: dbName, userName: userName, locksmith: locksmith}
}

// acceptDatabase decides a rel_database record given its db_name field,
// which must be the record's first field (spec §4.6).
func (f *rowFilter) acceptDatabase(name string) bool {
	if f.dbEmitted {
		return false
	}
	f.dbEmitted = true
	f.dbAccepted = name == f.dbName
	return f.dbAccepted
}

// acceptAttachment decides a rel_attachment record given its att_user
// field (the record's first field) and charset (read from the same
// record once accepted).
func (f *rowFilter) acceptAttachment(user string, charset engine.Charset) bool {
	if !f.dbAccepted {
		f.attAccepted = false
		return false
	}
	ok := f.locksmith || user == f.userName
	f.attAccepted = ok
	if ok {
		f.attCharset = charset
	}
	return ok
}

// acceptChild decides any other record type: visible iff both a database
// and an attachment within it have been accepted earlier in the stream.
func (f *rowFilter) acceptChild() bool {
	return f.dbAccepted && f.attAccepted
}
