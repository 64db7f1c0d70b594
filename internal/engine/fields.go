package engine

// Field ids for each monitoring relation's DumpRecord encoding (§6: "row
// layouts and field IDs are owned by the engine's metadata system and
// consumed unchanged"). Collector and SnapshotAssembler share these
// constants so the wire encoding on one side matches the decoding and
// row-filtering state machine on the other. db_name and att_user are
// deliberately field id 1 in their relations: spec §4.6 requires them to
// be the first field written so the filter can decide before any other
// field is materialized.
const (
	FieldDBName         uint16 = 1
	FieldDBFileID       uint16 = 2
	FieldDBShutdownMode uint16 = 3
	FieldDBBackupState  uint16 = 4
	FieldDBPageSize     uint16 = 5
	FieldDBStatID       uint16 = 6

	FieldAttUser      uint16 = 1
	FieldAttGlobalID  uint16 = 2
	FieldAttSystem    uint16 = 3
	FieldAttCharset   uint16 = 4
	FieldAttState     uint16 = 5
	FieldAttStatID    uint16 = 6

	FieldTxnGlobalID    uint16 = 1
	FieldTxnAttGlobalID uint16 = 2
	FieldTxnIsolation   uint16 = 3
	FieldTxnStatID      uint16 = 4

	FieldStmtGlobalID       uint16 = 1
	FieldStmtParentGlobalID uint16 = 2
	FieldStmtStatID         uint16 = 3

	FieldCallGlobalID       uint16 = 1
	FieldCallCallerGlobalID uint16 = 2
	FieldCallParentGlobalID uint16 = 3
	FieldCallStatID         uint16 = 4

	FieldStatsParentGlobalID uint16 = 1
	FieldStatsGroup          uint16 = 2

	FieldIOReads   uint16 = 3
	FieldIOWrites  uint16 = 4
	FieldIOFetches uint16 = 5
	FieldIOMarks   uint16 = 6

	FieldRecInserts  uint16 = 3
	FieldRecUpdates  uint16 = 4
	FieldRecDeletes  uint16 = 5
	FieldRecBackouts uint16 = 6
	FieldRecPurges   uint16 = 7
	FieldRecExpunges uint16 = 8

	FieldMemUsed      uint16 = 3
	FieldMemAllocated uint16 = 4
	FieldMemMaxUsed   uint16 = 5

	FieldCtxParentGlobalID uint16 = 1
	FieldCtxNamespace      uint16 = 2
	FieldCtxName           uint16 = 3
	FieldCtxValue          uint16 = 4
)
