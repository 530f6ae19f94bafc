// Package cli implements the dtui command-line interface.
//
// # Command Structure
//
// The root command "dtui" runs the dashboard; subcommands cover setup and
// inspection:
//
//	dtui [-H host]...   - Monitor containers on one or more hosts
//	dtui init           - Create a config file
//	dtui hosts          - Print the hosts dtui would monitor
//	dtui doctor         - Check the config and each host's engine
//	dtui version        - Print version information
//
// # Flag Handling
//
// --config and -H/--host are persistent so 'dtui hosts' resolves exactly the
// host list the dashboard would use. Hosts given with -H replace the
// configured ones. --refresh, --smoothing and --metrics-addr override the
// matching config keys and go through the same validation.
//
// # Running the Dashboard
//
// The Bubble Tea program, the monitor engine and the optional Prometheus
// endpoint run under one errgroup. Quitting the dashboard cancels the engine;
// the engine stopping (Quit or a signal) closes the dashboard.
package cli
