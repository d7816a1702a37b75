// Package commands provides the default command database (spec.md
// §4.E "command database"). The full Arma scripting command set is
// several thousand entries long and is normally sourced from the
// community wiki by a `hemtt wiki` scrape (see cmd/hemtt's `wiki`
// subcommand); this package embeds a representative curated subset
// covering the commands this repo's own lints and tests reference, so
// the compiler and lint framework have a usable Database out of the
// box without that scrape having run.
package commands

import "github.com/hemtt-go/hemtt/internal/sqf"

var nular = []string{
	"diag_log", "diag_tickTime", "player", "time", "serverTime", "missionNamespace",
	"objNull", "grpNull", "west", "east", "independent", "civilian", "sideUnknown",
	"allUnits", "allPlayers", "units", "vehicles", "diag_frameno",
}

var unary = []string{
	"hint", "str", "parseNumber", "parseText", "format", "count", "typeName",
	"isNil", "isNull", "sqrt", "abs", "floor", "ceil", "round", "random",
	"private", "params", "toArray", "toString", "createVehicle", "getPos",
	"setPos", "deleteVehicle", "call", "spawn", "execVM", "nil", "not",
	"isClass", "configName", "configFile", "getNumber", "getText", "getArray",
	"allVariables", "reverse", "sort", "selectRandom", "compile", "preprocessFile",
}

var binary = []string{
	"select", "in", "createVehicle", "setVariable", "getVariable", "getOrDefault",
	"forEach", "distance", "distance2D", "distanceSqr", "setPosATL", "pushBack",
	"pushBackUnique", "append", "find", "splitString", "joinString", "configClasses",
	"isEqualTo", "params", "call", "remoteExec", "remoteExecCall", "exec",
}

// Default builds the default Database. It is safe to share; callers
// typically build it once at process startup.
func Default() *sqf.Database {
	return sqf.NewDatabase(nular, unary, binary)
}
