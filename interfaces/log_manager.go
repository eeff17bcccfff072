package interfaces

// LogManager is an opaque handle accepted by the buffer pool manager.
// Logging policy (what gets logged, when, and to where) is not decided
// by this module — a caller that wants write-ahead logging supplies its
// own implementation; the buffer pool manager threads the handle through
// without interpreting it.
type LogManager interface{}
