// Package notifications decides who hears about a process transition and
// delivers the resulting events.
//
// Recipients are merged from typed sources (responsible consultants,
// subscribers, the subsidiary's informed list and responsible, and an
// optional HR mailbox) into a deduplicated set. Events are written to the
// store's outbox inside the triggering transaction; the Dispatcher drains the
// outbox after commit in sequence order, holding back later events of a
// process while an earlier one keeps failing.
//
// Delivery backends implement Service: ntfy (one publish per recipient via
// ntfy's email forwarding), a JSON webhook, a log sink, and a noop sink.
package notifications
