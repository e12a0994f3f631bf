// Package workflow is the write boundary of hiretrack.
//
// Every mutation of a candidate, process, or interview goes through Manager.
// Each write runs in one store transaction that reloads the process, applies
// the change, recomputes the derived state and responsible set, persists the
// materialized result, and enqueues a notification event when the process was
// created or its state or responsible set changed. Delivery happens after
// commit through the notifications dispatcher, so a failing sink never rolls
// back a save.
//
// The daemon also runs Manager's background loop, which sweeps past planned
// interviews into WAIT_INFORMATION and drains the notification outbox on
// fixed intervals. Batch anonymization lives here too because it shares the
// transactional pathway while deliberately bypassing notifications.
package workflow
