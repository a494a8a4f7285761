package model

// Entry kinds
const (
	KindSnapshot EntryKind = "snapshot"
	KindDiff     EntryKind = "diff"
	KindShare    EntryKind = "share"
)

// NowTimestamp marks the live file set rather than a logged instant.
const NowTimestamp int64 = -1

// NowLabel is the display label of the live entry
const NowLabel = "Now"

// DefaultConfigFile is the project configuration file carrying the target version
const DefaultConfigFile = "pxt.json"
