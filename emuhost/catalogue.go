package emuhost

import "strings"

// maxOptionValues bounds how many discrete values a single option is
// expected to offer; plug-ins that exceed it only have their first values
// kept.
const maxOptionValues = 32

// OptionValue is one selectable value of an Option, plus an optional
// human-readable label shown in its place.
type OptionValue struct {
	Value string
	Label string
}

// Option is a single configurable core option, as copied out of a v1 or v2
// core-options definition during Host.Probe.
type Option struct {
	Key          string
	Description  string
	Info         string
	CategoryKey  string
	Values       []OptionValue
	DefaultValue string
}

// Default returns the option's default value, falling back to its first
// value if none was marked default.
func (o Option) Default() string {
	if o.DefaultValue != "" {
		return o.DefaultValue
	}
	if len(o.Values) > 0 {
		return o.Values[0].Value
	}
	return ""
}

// Category groups options under a v2-style category key, for display only.
type Category struct {
	Key         string
	Description string
	Info        string
}

// Catalogue is the host-owned copy of a plug-in's advertised core options.
// Everything a plug-in hands across the environment callback boundary
// (option keys, descriptions, value lists) is copied into plain Go strings
// immediately, so Catalogue itself holds no pointers back into plug-in
// memory and needs no explicit release on the FFI side. Free exists to
// name that lifecycle boundary and to let callers drop large catalogues
// early without waiting on the garbage collector.
type Catalogue struct {
	Version    int
	Categories []Category
	Options    []Option
}

// NewCatalogue returns an empty catalogue.
func NewCatalogue() *Catalogue {
	return &Catalogue{}
}

// Find returns the option with the given key, or false if not present.
func (c *Catalogue) Find(key string) (Option, bool) {
	for _, o := range c.Options {
		if o.Key == key {
			return o, true
		}
	}
	return Option{}, false
}

// DefaultValue returns the default value for key, or "" if key is unknown.
func (c *Catalogue) DefaultValue(key string) string {
	o, ok := c.Find(key)
	if !ok {
		return ""
	}
	return o.Default()
}

// Free drops the catalogue's contents. Safe to call on a nil receiver.
func (c *Catalogue) Free() {
	if c == nil {
		return
	}
	c.Categories = nil
	c.Options = nil
}

// addOption appends an option, truncating its value list to
// maxOptionValues and trimming the null-terminated C-string padding that
// survives a naive copy out of a fixed buffer.
func (c *Catalogue) addOption(o Option) {
	if len(o.Values) > maxOptionValues {
		o.Values = o.Values[:maxOptionValues]
	}
	o.Key = trimCString(o.Key)
	o.Description = trimCString(o.Description)
	o.Info = trimCString(o.Info)
	o.CategoryKey = trimCString(o.CategoryKey)
	o.DefaultValue = trimCString(o.DefaultValue)
	for i := range o.Values {
		o.Values[i].Value = trimCString(o.Values[i].Value)
		o.Values[i].Label = trimCString(o.Values[i].Label)
	}
	c.Options = append(c.Options, o)
}

func trimCString(s string) string {
	if i := strings.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	return s
}
