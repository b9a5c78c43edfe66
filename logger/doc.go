// Package logger provides structured side-channel logging for provkit
// hosts using zerolog.
//
// All log output goes to stderr by default: stdout belongs to the wire
// protocol (the handshake line on the RPC transport, data and result
// lines on the stdio transport) and must never carry diagnostics.
//
// It supports JSON and console formats, log level configuration, and
// component-scoped loggers with structured fields.
//
// # Usage
//
//	log := logger.Get("stdiohost")
//	log.Info("dispatching command", logger.Fields("command", "plan"))
package logger
