// internal/status/constants.go
package status

// Device Status Block layout constants.
// These values define the register map and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// SlotsPerDevice is the fixed number of logical slots per device.
const SlotsPerDevice = 20

// ---- SLOT INDICES ----

// SlotHealthCode holds the device health state.
const SlotHealthCode = 0

// SlotLastErrorCode holds the last error code (see Err* below).
const SlotLastErrorCode = 1

// SlotSecondsInError holds the duration (in seconds) the device has been in error.
const SlotSecondsInError = 2

// SlotConnState holds the engine connection state (0..3).
const SlotConnState = 3

// SlotWeightHi/Lo hold the decoded value as IEEE-754 float32, high word first.
const (
	SlotWeightHi = 4
	SlotWeightLo = 5
)

// SlotRawHi/Lo hold the unsigned digit magnitude as uint32, high word first.
const (
	SlotRawHi = 6
	SlotRawLo = 7
)

// SlotDecimals holds the number of decimal places (0..3).
const SlotDecimals = 8

// SlotSign is 1 for a negative reading, 0 otherwise.
const SlotSign = 9

// ---- RESERVED ----

// Slot 10 and slot 19 are reserved and always written as zero.
const (
	SlotReservedA = 10
	SlotReservedB = 19
)

// ---- DEVICE NAME ----

// SlotDeviceNameStart is the first slot used for the device name.
const SlotDeviceNameStart = 11

// SlotDeviceNameSlots is the number of slots reserved for the device name.
const SlotDeviceNameSlots = 8

// SlotDeviceNameEnd is the last slot used for the device name (inclusive).
const SlotDeviceNameEnd = SlotDeviceNameStart + SlotDeviceNameSlots - 1

// ---- LIMITS ----

// DeviceNameMaxChars is the maximum number of ASCII characters stored for device name.
const DeviceNameMaxChars = 16

// SecondsInErrorMax is where the error timer saturates. It never wraps.
const SecondsInErrorMax uint16 = 65535

// ---- HEALTH CODES ----

const (
	HealthUnknown  uint16 = 0
	HealthOK       uint16 = 1
	HealthError    uint16 = 2
	HealthStale    uint16 = 3
	HealthDisabled uint16 = 4
)

// ---- ERROR CODES ----

const (
	ErrNone               uint16 = 0
	ErrGeneric            uint16 = 1
	ErrPollMiss           uint16 = 10
	ErrOpenFailed         uint16 = 20
	ErrOpenPortMissing    uint16 = 21
	ErrOpenPermission     uint16 = 22
	ErrOpenPortInUse      uint16 = 23
	ErrProbeTimeout       uint16 = 30
	ErrSensorUnresponsive uint16 = 40
)
