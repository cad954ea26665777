package emuhost

import "unsafe"

// The environment callback is the plug-in's one channel back into the
// host (spec.md §4.4): a single C function of shape `bool env(cmd, data)`
// that the plug-in calls from inside set_environment/init and, for a
// handful of commands, at any later point. purego.NewCallback wraps a Go
// closure over the owning Host directly, so no global registry is needed;
// the callback runs synchronously from within the set_environment/init
// calls made by Host.Probe or Host.Start and the run() calls made by
// Host.RunOneFrame, all of which hold h.mu for the duration.

// cOptionValue mirrors a single {value,label} pair as laid out by a
// plug-in compiled against the adopted option-catalogue ABI: two
// consecutive C string pointers.
type cOptionValue struct {
	value uintptr
	label uintptr
}

// cOptionV2 mirrors one v2 core-option definition: key/desc/desc_categorized/
// info/info_categorized/category_key, a fixed array of option values
// terminated by a nil value pointer, then the default value string.
type cOptionV2 struct {
	key              uintptr
	desc             uintptr
	descCategorized  uintptr
	info             uintptr
	infoCategorized  uintptr
	categoryKey      uintptr
	values           [maxOptionValues]cOptionValue
	defaultValue     uintptr
}

// cOptionV1 mirrors the older, category-less option definition shape.
type cOptionV1 struct {
	key          uintptr
	desc         uintptr
	info         uintptr
	values       [maxOptionValues]cOptionValue
	defaultValue uintptr
}

// cOptionCategory mirrors one v2 category entry.
type cOptionCategory struct {
	key  uintptr
	desc uintptr
	info uintptr
}

// cOptionsV2 mirrors the envelope passed with SetCoreOptionsV2: a pointer
// to a nil-key-terminated category array, and a pointer to a
// nil-key-terminated definition array.
type cOptionsV2 struct {
	categories uintptr
	definitions uintptr
}

// cVariable mirrors the {key,value} pair used by GetVariable requests; the
// plug-in sets key, the host fills in value.
type cVariable struct {
	key   uintptr
	value uintptr
}

func goString(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}
	n := 0
	for {
		c := *(*byte)(unsafe.Pointer(ptr + uintptr(n)))
		if c == 0 {
			break
		}
		n++
	}
	return string(unsafe.Slice((*byte)(unsafe.Pointer(ptr)), n))
}

func decodeOptionValues(raw [maxOptionValues]cOptionValue) []OptionValue {
	var values []OptionValue
	for _, v := range raw {
		if v.value == 0 {
			break
		}
		values = append(values, OptionValue{
			Value: goString(v.value),
			Label: goString(v.label),
		})
	}
	return values
}

// ingestOptionsV2 copies a v2 option catalogue out of plug-in memory,
// following nil-key-terminated category and definition arrays.
func (h *Host) ingestOptionsV2(data uintptr) {
	if data == 0 {
		return
	}
	env := (*cOptionsV2)(unsafe.Pointer(data))

	if env.categories != 0 {
		const stride = unsafe.Sizeof(cOptionCategory{})
		for i := uintptr(0); ; i++ {
			cat := (*cOptionCategory)(unsafe.Pointer(env.categories + i*stride))
			if cat.key == 0 {
				break
			}
			h.catalogue.Categories = append(h.catalogue.Categories, Category{
				Key:         goString(cat.key),
				Description: goString(cat.desc),
				Info:        goString(cat.info),
			})
		}
	}

	if env.definitions != 0 {
		const stride = unsafe.Sizeof(cOptionV2{})
		for i := uintptr(0); ; i++ {
			def := (*cOptionV2)(unsafe.Pointer(env.definitions + i*stride))
			if def.key == 0 {
				break
			}
			h.catalogue.addOption(Option{
				Key:          goString(def.key),
				Description:  goString(def.desc),
				Info:         goString(def.info),
				CategoryKey:  goString(def.categoryKey),
				Values:       decodeOptionValues(def.values),
				DefaultValue: goString(def.defaultValue),
			})
		}
	}
	h.catalogue.Version = 2
}

// ingestOptionsV1 copies a v1 (category-less) option catalogue, a
// nil-key-terminated array of cOptionV1 starting at data.
func (h *Host) ingestOptionsV1(data uintptr) {
	if data == 0 {
		return
	}
	const stride = unsafe.Sizeof(cOptionV1{})
	for i := uintptr(0); ; i++ {
		def := (*cOptionV1)(unsafe.Pointer(data + i*stride))
		if def.key == 0 {
			break
		}
		h.catalogue.addOption(Option{
			Key:          goString(def.key),
			Description:  goString(def.desc),
			Info:         goString(def.info),
			Values:       decodeOptionValues(def.values),
			DefaultValue: goString(def.defaultValue),
		})
	}
	if h.catalogue.Version == 0 {
		h.catalogue.Version = 1
	}
}

// environment implements the dispatch table in spec.md §4.4. It runs on
// the main thread, synchronously, called back by the plug-in from within
// set_environment/init/run.
func (h *Host) environment(cmd uint32, data uintptr) bool {
	switch Command(cmd) {
	case CmdGetLogInterface:
		// A logging callback is accepted but not required; the host
		// routes its own log through the logger package instead, so
		// nothing is written back here beyond acknowledging support.
		return true

	case CmdGetCoreOptionsVersion:
		if data != 0 {
			*(*uint32)(unsafe.Pointer(data)) = 2
		}
		return true

	case CmdSetCoreOptionsV2, CmdSetCoreOptionsV2Intl:
		h.ingestOptionsV2(data)
		return true

	case CmdSetCoreOptions, CmdSetCoreOptionsIntl:
		h.ingestOptionsV1(data)
		return true

	case CmdGetSystemDirectory:
		if data != 0 && h.systemDir != "" {
			h.stringOut(data, h.systemDir)
		}
		return h.systemDir != ""

	case CmdGetSaveDirectory:
		if data != 0 && h.saveDir != "" {
			h.stringOut(data, h.saveDir)
		}
		return h.saveDir != ""

	case CmdGetVariable:
		if data == 0 {
			return false
		}
		v := (*cVariable)(unsafe.Pointer(data))
		key := goString(v.key)
		value, ok := h.lookupVariable(key)
		if !ok {
			return false
		}
		v.value = h.cStringFor(key, value)
		return true

	case CmdSetDiskControlInterface,
		CmdSetDiskControlExtInterface,
		CmdSetKeyboardCallback,
		CmdSetCoreOptionsUpdateDisplayCallback,
		CmdSetCoreOptionsDisplay,
		CmdSetSupportNoGame,
		CmdSetRotation,
		CmdSetPerformanceLevel,
		CmdSetControllerInfo,
		CmdSetInputDescriptors,
		CmdGetCanDupe,
		CmdSetPixelFormat,
		CmdSetMessage,
		CmdSetVariables,
		CmdGetVariableUpdate,
		CmdGetDiskControlInterfaceVersion:
		return true

	default:
		return false
	}
}

// lookupVariable resolves a core-option key to its current value: an
// explicit override if one was configured, else the catalogue default.
func (h *Host) lookupVariable(key string) (string, bool) {
	if v, ok := h.overrides[key]; ok {
		return v, true
	}
	if o, ok := h.catalogue.Find(key); ok {
		return o.Default(), true
	}
	return "", false
}

// stringOut writes a pointer to an owned, host-allocated C string into the
// *(*uintptr)(data) out-parameter used by the directory-query commands.
func (h *Host) stringOut(data uintptr, s string) {
	*(*uintptr)(unsafe.Pointer(data)) = h.cString(s)
}
