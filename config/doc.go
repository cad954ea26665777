// Package config reads and writes the core's persisted key=value
// configuration file.
//
// The format and key names are taken directly from the original
// implementation's config.c: one "key=value" pair per line, blank or
// missing keys leave the field at whatever value it already had rather
// than erroring, and only non-empty/non-zero fields are written back out,
// apart from audio_enabled, which is always written. Keys are namespaced
// "core.<field>" to leave room for sibling namespaces (the original
// duplicated this struct per emulated system; here the system is selected
// separately via machine.System and the config is the same shape for all of
// them, see DESIGN.md).
package config
