// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

/*
Package pagination drives a viewer's feed session.

A Pager moves through these states:

	Idle -> Fetching -> Loaded -> Fetching -> ... -> Exhausted

Load returns the cached session when it is live and was built with the same
filters, otherwise it fetches the first page. LoadMore appends the next page
to the cached list. Concurrent LoadMore calls for one viewer share a single
upstream fetch, and LoadMore on an exhausted session does nothing. Refresh
discards the cursor, invalidates upstream state and replaces the list.

Sessions maps viewer ids to pagers.
*/
package pagination
