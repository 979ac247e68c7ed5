// Package motor implements axis controllers for APT motion devices.
//
// An Axis owns the per-device state of one physical axis: destination
// address, encoder and velocity scale constants, soft limits, backlash
// compensation and the cached homed flag. Its operations work in physical
// units (millimeters or degrees) and translate to encoder counts through
// the device Model, so callers never touch the wire representation.
//
// All operations are synchronous: a move or home command blocks until the
// matching completion frame arrives on the connection. Several axes may
// share one aptlink.Connection; calls on them must be serialized by the
// caller, the way the stage package does.
//
// Predefined Models cover the supported device families (MLS203, PRM1Z8,
// DRV014); custom devices are described by filling in a Model value.
package motor
