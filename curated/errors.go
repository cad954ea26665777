package curated

import (
	"fmt"
	"strings"
)

// curated is an implementation of the go language error interface.
type curated struct {
	pattern string
	values  []interface{}
}

// Errorf creates a new curated error.
//
// Unlike fmt.Errorf the first argument is named "pattern" rather than
// "format": the pattern string is also the key used by Is() and Has() to
// classify the error, so it doubles as a lightweight sentinel.
func Errorf(pattern string, values ...interface{}) error {
	// formatting is deferred to Error() so that Is()/Has() can compare
	// against the pattern without re-running fmt.Sprintf
	return curated{
		pattern: pattern,
		values:  values,
	}
}

// Error returns the normalised error message: if the first two chain parts
// are identical, the first is dropped. Later parts are not compared.
// Letter-case and whitespace are untouched.
//
// Implements the go language error interface.
func (er curated) Error() string {
	s := fmt.Errorf(er.pattern, er.values...).Error()

	p := strings.SplitN(s, ": ", 3)
	if len(p) > 1 && p[0] == p[1] {
		return strings.Join(p[1:], ": ")
	}

	return strings.Join(p, ": ")
}

// isCurated reports whether err was created by Errorf.
func isCurated(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(curated)
	return ok
}

// Is checks if error is a curated error with a specific pattern.
func Is(err error, pattern string) bool {
	if err == nil {
		return false
	}

	if er, ok := err.(curated); ok {
		return er.pattern == pattern
	}

	return false
}

// Has checks if error is a curated error with a specific pattern somewhere
// in the wrapped chain.
func Has(err error, pattern string) bool {
	if !isCurated(err) {
		return false
	}

	if Is(err, pattern) {
		return true
	}

	for _, v := range err.(curated).values {
		if e, ok := v.(curated); ok {
			if Has(e, pattern) {
				return true
			}
		}
	}

	return false
}
