// Package mirror keeps a local SQLite copy of the events textcal has changed.
//
// The Synchronizer receives executed outcomes: successful creates and updates
// upsert a row keyed by (calendar id, remote event id), successful deletes
// remove it. The mirror is best effort and never affects a plan's result.
// Rows can be listed, exported as iCalendar with ExportICS, or cleared.
package mirror
