// Package cluster brings worker nodes up and tears them down.
//
// A [Spawner] starts one worker per name and hands back a [Member] for each:
// the dispatcher side of its bus plus a Stop function. Two spawners exist.
//
//   - [InProcess] runs every worker as a goroutine on an in-memory
//     [bus.Pipe].
//   - [Process] re-runs the simulator binary as "worker" child processes.
//     Commands travel over the child's stdin/stdout, or over a WebSocket
//     the child dials back to a loopback listener.
//
// The child side of [Process] lives here too: [ParseChildArgs] and
// [ServeChild] are what the "worker" subcommand runs.
//
// Stopping is graceful first. Closing the member's bus makes the worker
// loop exit; a child process additionally receives an interrupt. Members
// that are still alive when the stop context expires are killed.
package cluster
