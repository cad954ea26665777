// Package symbolizer wraps a long-running addr2line-style child process
// that resolves code addresses to (file, line) pairs. The child speaks a
// one-address-per-line request protocol and replies with two lines per
// address: a function name, then "file:line".
package symbolizer
