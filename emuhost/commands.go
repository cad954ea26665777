package emuhost

// Command identifies one request in the environment callback protocol
// (spec.md §4.4). The plug-in calls the host's single environment function
// with one of these, plus a command-specific data pointer.
//
// Numeric values follow the "retro" plug-in contract this host adopts
// (spec.md §6, "adopted, not defined") rather than being invented locally,
// so that a conforming plug-in built against the same contract needs no
// translation layer.
type Command uint32

const (
	CmdSetRotation         Command = 1
	CmdGetCanDupe          Command = 3
	CmdSetMessage          Command = 6
	CmdSetPerformanceLevel Command = 8
	CmdGetSystemDirectory  Command = 9
	CmdSetPixelFormat      Command = 10
	CmdSetInputDescriptors Command = 11
	CmdSetKeyboardCallback Command = 12

	CmdSetDiskControlInterface Command = 13

	CmdGetVariable       Command = 15
	CmdSetVariables      Command = 16
	CmdGetVariableUpdate Command = 17
	CmdSetSupportNoGame  Command = 18

	CmdGetLogInterface Command = 27
	CmdGetSaveDirectory Command = 31

	CmdSetControllerInfo Command = 35

	CmdGetCoreOptionsVersion Command = 52
	CmdSetCoreOptions        Command = 53
	CmdSetCoreOptionsIntl    Command = 54
	CmdSetCoreOptionsDisplay Command = 55

	CmdGetDiskControlInterfaceVersion Command = 57
	CmdSetDiskControlExtInterface     Command = 58

	CmdSetCoreOptionsV2                    Command = 67
	CmdSetCoreOptionsV2Intl                Command = 68
	CmdSetCoreOptionsUpdateDisplayCallback Command = 69
)

// String names a command for logging; unrecognised commands print
// "unknown".
func (c Command) String() string {
	switch c {
	case CmdSetRotation:
		return "set_rotation"
	case CmdGetCanDupe:
		return "get_can_dupe"
	case CmdSetMessage:
		return "set_message"
	case CmdSetPerformanceLevel:
		return "set_performance_level"
	case CmdGetSystemDirectory:
		return "get_system_directory"
	case CmdSetPixelFormat:
		return "set_pixel_format"
	case CmdSetInputDescriptors:
		return "set_input_descriptors"
	case CmdSetKeyboardCallback:
		return "set_keyboard_callback"
	case CmdSetDiskControlInterface:
		return "set_disk_control_interface"
	case CmdGetVariable:
		return "get_variable"
	case CmdSetVariables:
		return "set_variables"
	case CmdGetVariableUpdate:
		return "get_variable_update"
	case CmdSetSupportNoGame:
		return "set_support_no_game"
	case CmdGetLogInterface:
		return "get_log_interface"
	case CmdGetSaveDirectory:
		return "get_save_directory"
	case CmdSetControllerInfo:
		return "set_controller_info"
	case CmdGetCoreOptionsVersion:
		return "get_core_options_version"
	case CmdSetCoreOptions:
		return "set_core_options"
	case CmdSetCoreOptionsIntl:
		return "set_core_options_intl"
	case CmdSetCoreOptionsDisplay:
		return "set_core_options_display"
	case CmdGetDiskControlInterfaceVersion:
		return "get_disk_control_interface_version"
	case CmdSetDiskControlExtInterface:
		return "set_disk_control_ext_interface"
	case CmdSetCoreOptionsV2:
		return "set_core_options_v2"
	case CmdSetCoreOptionsV2Intl:
		return "set_core_options_v2_intl"
	case CmdSetCoreOptionsUpdateDisplayCallback:
		return "set_core_options_update_display_callback"
	default:
		return "unknown"
	}
}
