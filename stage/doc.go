// Package stage composes motor axes into ready-to-use stage assemblies.
//
// XYStage coordinates two axes sharing one connection: connect-time
// channel enabling and homing, combined position and velocity operations,
// and serialized access so frames of the two axes never interleave.
// RotationStage and StepperStage wrap a single axis with device defaults
// and add no protocol logic of their own.
//
// Stage assemblies can also be described in a YAML profile (serial port,
// per-axis model, address and motion overrides) and built with
// LoadProfile.
package stage
