// Package feed archives delivered events into the notifications table that
// backs the console's notification center.
//
// The writer consumes envelopes from a GrowableBuffer so a slow database
// never blocks event dispatch, accumulates batches, and flushes them with
// pgx batch inserts. Duplicate ids are ignored on conflict.
//
// This is an archive of events that were delivered, not a replay mechanism:
// events missed while the socket was down are never recovered here.
package feed
