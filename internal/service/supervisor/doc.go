// Package supervisor runs the installed server binary as a managed child
// process: one-for-one restarts with exponential backoff, a restart budget
// over a sliding window, graceful termination on shutdown and child output
// forwarded to the logger. The hosting application only ever talks to the
// Supervisor, never to the OS process.
package supervisor
