package apt

import "fmt"

// Opcode is a 2-byte APT command or response identifier.
// Opcodes are transmitted low byte first.
type Opcode uint16

// Command opcodes (APT host-controller message set).
const (
	// Generic system commands.
	HwReqInfo            Opcode = 0x0005
	HwGetInfo            Opcode = 0x0006
	HwNoFlashProgramming Opcode = 0x0018
	ModIdentify          Opcode = 0x0223

	// Channel enable state.
	SetChanEnableState Opcode = 0x0210
	ReqChanEnableState Opcode = 0x0211
	GetChanEnableState Opcode = 0x0212

	// Position and encoder counters.
	ReqPosCounter Opcode = 0x0411
	GetPosCounter Opcode = 0x0412
	ReqEncCounter Opcode = 0x040A
	GetEncCounter Opcode = 0x040B

	// Velocity profile parameters.
	SetVelParams Opcode = 0x0413
	ReqVelParams Opcode = 0x0414
	GetVelParams Opcode = 0x0415

	// Homing.
	SetHomeParams Opcode = 0x0440
	ReqHomeParams Opcode = 0x0441
	GetHomeParams Opcode = 0x0442
	MoveHome      Opcode = 0x0443
	MoveHomed     Opcode = 0x0444

	// Motion.
	MoveAbsolute  Opcode = 0x0453
	MoveCompleted Opcode = 0x0464
	MoveStop      Opcode = 0x0465
	MoveStopped   Opcode = 0x0466
	MoveJog       Opcode = 0x046A

	// Status updates and the keep-alive acknowledgement.
	ReqStatusUpdate  Opcode = 0x0480
	GetStatusUpdate  Opcode = 0x0481
	ReqUStatusUpdate Opcode = 0x0490
	GetUStatusUpdate Opcode = 0x0491
	AckUStatusUpdate Opcode = 0x0492
)

// commandTable is the static, exhaustive mapping from symbolic command
// names to opcodes. Lookups fail closed: a name outside this table is a
// contract violation, never a link error.
var commandTable = map[string]Opcode{
	"HW_REQ_INFO":             HwReqInfo,
	"HW_GET_INFO":             HwGetInfo,
	"HW_NO_FLASH_PROGRAMMING": HwNoFlashProgramming,
	"MOD_IDENTIFY":            ModIdentify,
	"SET_CHANENABLESTATE":     SetChanEnableState,
	"REQ_CHANENABLESTATE":     ReqChanEnableState,
	"GET_CHANENABLESTATE":     GetChanEnableState,
	"REQ_POSCOUNTER":          ReqPosCounter,
	"GET_POSCOUNTER":          GetPosCounter,
	"REQ_ENCCOUNTER":          ReqEncCounter,
	"GET_ENCCOUNTER":          GetEncCounter,
	"SET_VEL_PARAMS":          SetVelParams,
	"REQ_VEL_PARAMS":          ReqVelParams,
	"GET_VEL_PARAMS":          GetVelParams,
	"SET_HOME_PARAMS":         SetHomeParams,
	"REQ_HOME_PARAMS":         ReqHomeParams,
	"GET_HOME_PARAMS":         GetHomeParams,
	"MOVE_HOME":               MoveHome,
	"MOVE_HOMED":              MoveHomed,
	"MOVE_ABSOLUTE":           MoveAbsolute,
	"MOVE_COMPLETED":          MoveCompleted,
	"MOVE_STOP":               MoveStop,
	"MOVE_STOPPED":            MoveStopped,
	"MOVE_JOG":                MoveJog,
	"REQ_STATUSUPDATE":        ReqStatusUpdate,
	"GET_STATUSUPDATE":        GetStatusUpdate,
	"REQ_USTATUSUPDATE":       ReqUStatusUpdate,
	"GET_USTATUSUPDATE":       GetUStatusUpdate,
	"ACK_USTATUSUPDATE":       AckUStatusUpdate,
}

// opcodeNames is the reverse of commandTable, used for diagnostics and
// opcode validation.
var opcodeNames = make(map[Opcode]string, len(commandTable))

func init() {
	for name, op := range commandTable {
		opcodeNames[op] = name
	}
}

// LookupCommand resolves a symbolic command name to its opcode.
// Unknown names return ErrUnknownCommand.
func LookupCommand(name string) (Opcode, error) {
	op, ok := commandTable[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}

	return op, nil
}

// OpcodeName returns the symbolic name of an opcode, or its hex form when
// the opcode is not in the command table.
func OpcodeName(op Opcode) string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}

	return fmt.Sprintf("0x%04X", uint16(op))
}

// validOpcode reports whether op is in the command table.
func validOpcode(op Opcode) bool {
	_, ok := opcodeNames[op]
	return ok
}
