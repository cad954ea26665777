// Package logger implements a small ring-buffered, permission-gated log
// used throughout the core. Components log through here rather than writing
// to stdout directly, so that a GUI (or a headless smoke-test run) can
// decide how and whether to surface a given entry.
package logger
