// Package curated is a helper package for the plain Go language error type.
// Curated errors implement the error interface.
//
// Curated errors are created with the Errorf() function. This is similar to
// the Errorf() function in the fmt package. It takes a formatting pattern,
// placeholder values and returns an error.
//
// The Is() function can be used to check whether an error was created by the
// Errorf() function with a specific pattern:
//
//	e := curated.Errorf("elf not found: %s", path)
//
//	if curated.Is(e, "elf not found: %s") {
//		fmt.Println("true")
//	}
//
// Has() is similar but checks if the pattern occurs anywhere in the chain of
// wrapped errors, not only at the outermost layer. Has() also answers
// whether an error is curated at all: a plain (uncurated) error never
// matches any pattern.
//
// The Error() implementation normalises the chain: it drops a duplicate
// adjacent part so that wrapping an already-curated error at every call site
// doesn't produce a repeated message like:
//
//	elf: elf: file not found
//
// Chains are split on the substring ": " (p239 of "The Go Programming
// Language", Donovan & Kernighan). There is no dedicated sentinel error type;
// a const pattern string plus Is()/Has() plays that role.
package curated
