// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

/*
Package eventprocessor publishes interaction events over Watermill.

Two transports are supported:

  - An in-process GoChannel pub/sub, used when no NATS URL is configured.
    Subscribers in the same process (tests, local tooling) can read events
    through Publisher.Subscribe.
  - NATS JetStream through watermill-nats, used when events.nats_url is set.
    Message IDs are propagated as Nats-Msg-Id headers so JetStream can
    deduplicate retried publishes.

Topics are prefixed with the configured prefix, for example
"placefeed.activity.viewed". Every publish goes through a circuit breaker so a
flapping broker cannot stall request handlers, and every attempt is counted in
the placefeed_events_published_total metric.

Publisher also implements the feed invalidation hook used by the pagination
package: a successful refresh publishes a feed.refreshed event so other
replicas can drop their cached state for the viewer.
*/
package eventprocessor
