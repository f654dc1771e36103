package launcher

// State is a step of the bootstrap sequence.
type State int

const (
	StateInit State = iota
	StateModulesRegistered
	StateRuntimeLoaded
	StateSelfLocated
	StateTrailerRead
	StatePayloadDecoded
	StatePayloadExecuted
	StateDone
	StateAborted
)

var stateNames = [...]string{
	StateInit:              "init",
	StateModulesRegistered: "modules-registered",
	StateRuntimeLoaded:     "runtime-loaded",
	StateSelfLocated:       "self-located",
	StateTrailerRead:       "trailer-read",
	StatePayloadDecoded:    "payload-decoded",
	StatePayloadExecuted:   "payload-executed",
	StateDone:              "done",
	StateAborted:           "aborted",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}
