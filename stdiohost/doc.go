// Package stdiohost hosts a provider behind the line-oriented stdio
// transport.
//
// The host reads exactly one command envelope from the first line of
// standard input, binds the provider configuration, and dispatches:
// lifecycle commands produce one JSON result line on stdout, a run
// command streams envelopes out (input provider) or consumes envelope
// lines from stdin (output provider). Stdout carries protocol frames
// only; diagnostics go to the side channel.
package stdiohost
