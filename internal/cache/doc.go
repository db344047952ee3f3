// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

/*
Package cache holds the per-viewer feed session cache.

Each viewer has at most one Entry: the pages loaded so far in the current
session, the cursor to continue from and a fingerprint of the filters that
produced them. Entries expire TTL after they were saved; an expired entry is
never returned and is evicted on the read that discovers it.

# Usage

	c := cache.NewFeedCache(cache.Config{TTL: 5 * time.Minute, MaxViewers: 10000}, clock.System)

	c.Save(viewerID, cache.Entry{Items: page.Items, HasMore: page.HasMore, Cursor: page.NextCursor})
	if e := c.Load(viewerID); e != nil {
	    // serve e.Items
	}

Append extends an entry atomically. It is conditional on the entry still being
positioned at the cursor the caller fetched from, so a page fetched before a
concurrent Save or Clear is rejected instead of being appended to the wrong
list.

# Capacity

When MaxViewers is reached the least recently used viewer is evicted. The
janitor (Serve) sweeps expired entries in the background so idle viewers do not
hold memory until the next read.

# Thread Safety

All methods are safe for concurrent use. Load returns a copy; callers may
modify it freely.
*/
package cache
