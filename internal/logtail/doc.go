// Package logtail reads the tail of the rotary log file and parses its
// records for the in-app log view.
//
// # Reading
//
// Read keeps a ring buffer of the last maxLines lines, so memory stays
// bounded by the number of lines requested rather than the file size. A
// missing file is not an error; the viewer may not have logged anything yet.
//
// # Parsing
//
// The viewer logs with slog's text handler:
//
//	time=2025-10-08T21:01:05.123Z level=INFO msg="viewer: session opened" session=4f1c frames=36
//
// Parse splits such a line into time, level, component, message and the
// remaining attributes. Messages follow the "component: text" convention used
// throughout rotary, so the component is recovered from the message prefix.
// Lines that are not key=value records (a panic trace, say) come back with
// only Message set.
package logtail
