// Package logger provides a thin wrapper around zap:
//   - a global sugared logger with a console encoder,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level parsing and runtime level changes,
//   - convenience functions (Infof, ErrorKV, etc.).
//
// Services accept a context and log through it, so a named, scoped logger
// follows every operation from the CLI entry point down.
package logger
