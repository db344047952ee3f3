// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

/*
Package supervisor runs the long-lived services under suture v4.

	RootSupervisor ("placefeed")
	├── DataSupervisor ("data-layer")
	│   ├── feed-cache-janitor
	│   ├── session-pruner (PeriodicService)
	│   └── view-log-gc (PeriodicService)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── viewed-marks-worker
	│   └── event-publisher (CloserService)
	└── APISupervisor ("api-layer")
	    └── http-server (HTTPServerService)

Supervisor events are logged through sutureslog into the zerolog-backed
slog logger. Every service returns ctx.Err() on shutdown so suture does not
count a clean stop as a failure.
*/
package supervisor
