// Package monitor is the container monitoring engine behind the dashboard.
//
// # Architecture
//
// One HostMonitor goroutine runs per configured host. It connects to the
// engine, subscribes to container lifecycle events, lists the running
// containers and starts one stats streamer per container. Every producer
// writes Events into a single buffered channel.
//
// The Aggregator is the only consumer of that channel and the only code that
// touches AppState, so no locks guard it. On every tick it builds an
// immutable View and hands it to each Display.
//
//	HostMonitor ──InitialList/Created/Destroyed──┐
//	streamer    ──StatUpdate─────────────────────┼──> events ──> Aggregator ──View──> Display
//	keyboard    ──Quit/Resize/Select*────────────┘
//
// # Host Lifecycle
//
//	Connecting ──ok──> Active ──cancel──> ShuttingDown ──> Stopped
//	     │                └──lifecycle stream ends──────────> Stopped
//	     └──connect/ping fails──────────────────────────────> Stopped
//
// A stopped host is never reconnected. Its failure is reported through a
// HostStatus event and does not affect other hosts.
//
// # Shutdown
//
// Quit cancels every host monitor, which cancels its streamers. The
// aggregator keeps applying in-flight events until all producers have
// returned or the grace period elapses, then closes its displays.
package monitor
