package sqf

import "strings"

// nularCommandsSpecial, binaryCommandsSpecial, and commandsOperators are
// alpha-numeric or symbolic commands handled by special-cased precedence
// in the parser rather than looked up in a Database (spec §4.E's
// "command database" groups only the commands without special
// precedence; these are the reference compiler's analogous constant
// lists in libs/sqf/src/parser/database/mod.rs).
var (
	nularCommandsSpecial  = []string{"true", "false"}
	binaryCommandsSpecial = []string{"or", "and", "else", "max", "min", "mod", "atan2"}
	commandsOperators     = []string{"!", "||", "&&", "==", "!=", ">>", ">=", "<=", ">", "<", "+", "-", "*", "/", "%", "^", ":", "#"}

	// nularCommandsConstants are nular commands the optimizer and
	// serializer may fold to a NularCommand constant at compile time
	// (spec §3 "Compiled script", Constant.NularCommand).
	nularCommandsConstants = []string{
		"nil", "confignull", "controlnull", "diaryrecordnull", "displaynull",
		"grpnull", "locationnull", "objnull", "scriptnull", "tasknull", "teammembernull",
	}
)

// Database holds the set of known nular/unary/binary command names the
// parser consults to classify identifiers (spec §4.E "command
// database"). It is immutable after construction and safe to share
// across concurrent parses (spec §5).
type Database struct {
	nular  map[string]struct{}
	unary  map[string]struct{}
	binary map[string]struct{}
}

// NewDatabase builds a Database from explicit name lists, lower-casing
// every entry and excluding the specially-handled names so they never
// shadow the parser's hard-coded precedence rules.
func NewDatabase(nular, unary, binary []string) *Database {
	db := &Database{
		nular:  make(map[string]struct{}, len(nular)),
		unary:  make(map[string]struct{}, len(unary)),
		binary: make(map[string]struct{}, len(binary)),
	}
	for _, n := range nular {
		db.AddNularCommand(n)
	}
	for _, n := range unary {
		db.AddUnaryCommand(n)
	}
	for _, n := range binary {
		db.AddBinaryCommand(n)
	}
	return db
}

// Empty returns a Database with no entries, useful for testing small
// fragments of SQF without the full command list loaded.
func Empty() *Database { return NewDatabase(nil, nil, nil) }

func (db *Database) AddNularCommand(name string) {
	if isValidName(name) && !isIn(nularCommandsSpecial, name) {
		db.nular[strings.ToLower(name)] = struct{}{}
	}
}

func (db *Database) AddUnaryCommand(name string) {
	if isValidName(name) {
		db.unary[strings.ToLower(name)] = struct{}{}
	}
}

func (db *Database) AddBinaryCommand(name string) {
	if isValidName(name) && !isIn(binaryCommandsSpecial, name) {
		db.binary[strings.ToLower(name)] = struct{}{}
	}
}

func (db *Database) HasNularCommand(name string) bool {
	_, ok := db.nular[strings.ToLower(name)]
	return ok
}

func (db *Database) HasUnaryCommand(name string) bool {
	_, ok := db.unary[strings.ToLower(name)]
	return ok
}

func (db *Database) HasBinaryCommand(name string) bool {
	_, ok := db.binary[strings.ToLower(name)]
	return ok
}

func (db *Database) HasCommand(name string) bool {
	return db.HasNularCommand(name) || db.HasUnaryCommand(name) || db.HasBinaryCommand(name)
}

// IsSpecialCommand reports whether name is handled by hard-coded parser
// precedence (true/false/or/and/else/max/min/mod/atan2) rather than a
// Database lookup.
func IsSpecialCommand(name string) bool {
	return isIn(nularCommandsSpecial, name) || isIn(binaryCommandsSpecial, name)
}

// IsOperatorCommand reports whether name is one of the symbolic
// operator tokens (never alpha-numeric).
func IsOperatorCommand(name string) bool {
	return isIn(commandsOperators, name)
}

// IsConstantCommand reports whether a lower-cased nular command name
// may be folded into a Constant.NularCommand at compile time.
func IsConstantCommand(name string) bool {
	return isIn(nularCommandsConstants, name)
}

func isValidName(name string) bool {
	for _, ch := range name {
		if !(ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')) {
			return false
		}
	}
	return name != ""
}

// IsValidCommandName reports whether name is usable as a serialized
// command name: alpha-numeric, or one of the fixed operator symbols.
func IsValidCommandName(name string) bool {
	return isValidName(name) || IsOperatorCommand(name)
}

func isIn(list []string, item string) bool {
	for _, s := range list {
		if strings.EqualFold(s, item) {
			return true
		}
	}
	return false
}
