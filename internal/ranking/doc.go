// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

/*
Package ranking builds a viewer's personalized activity feed.

# Scoring

Each candidate receives an additive integer score from ScoreOf:

	base (5)
	+ follow (3)     author is followed by the viewer
	+ category (2)   any overlap between activity and viewer categories
	+ proximity (1)  includeGeographic, coordinates present, within maxDistanceKm

Weights are configurable. There is no time decay: CreatedAt only breaks ties.

# Paging

Candidates are read newest first in (CreatedAt, ID) keyset order, in batches of
OverfetchFactor x limit. The viewer's own activities, and with FriendsOnly the
activities of authors the viewer does not follow, are skipped. A page holds the
limit most recent remaining candidates, ordered by (score desc, CreatedAt desc,
ID desc). NextCursor is the keyset position of the oldest item on the page, so
a chained sequence of pages covers every qualifying activity exactly once even
though items inside a page are reordered by score.

# Concurrency

The viewer profile, the following set and the first candidate batch are read in
parallel and fully joined before anything is scored. A bounded FetchTimeout
applies to the whole call; overruns fail with a retryable Timeout error and
never produce a partial page.
*/
package ranking
