// Package executor applies a validated plan.Plan to a remote calendar.
//
// Every operation is attempted independently: a failure is recorded as an
// Outcome and the batch continues. Successful mutations are mirrored into
// the local store when a Mirror is configured; mirror failures are logged
// and counted but never change an outcome. There are no retries and no
// rollback of mutations that were already applied.
//
// Operations run sequentially unless Options.Workers is greater than one,
// in which case a bounded pool is used. Outcomes are always reported in
// plan order.
package executor
