// internal/status/snapshot.go
package status

// Snapshot represents exactly what the writer is allowed to deliver.
// It contains no logic and no memory of the past beyond current state.
type Snapshot struct {
	Health         uint16
	LastErrorCode  uint16
	SecondsInError uint16
	ConnState      uint16

	// Last good reading. Kept across errors so the mirror shows the
	// last known weight next to the error code.
	Weight   float32
	Raw      uint32
	Decimals uint16
	Negative bool
}
