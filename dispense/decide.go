package dispense

import "github.com/mastercactapus/plateloader/machine"

// MaxAttempts is the number of tokens handled per well before giving up.
const MaxAttempts = 4

// Action is the response to a dispenser token.
type Action int

const (
	// ActionNone waits for the next token without sending anything.
	ActionNone Action = iota
	ActionSucceed
	ActionPurge
	ActionRedispense
	// ActionFail marks a hardware failure and halts the run.
	ActionFail
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionSucceed:
		return "succeed"
	case ActionPurge:
		return "purge"
	case ActionRedispense:
		return "redispense"
	case ActionFail:
		return "fail"
	}
	return "unknown"
}

// Decide maps a token on a zero-based attempt to an action.
//
// A no-fly on the last attempt takes no action; the well then counts as
// filled once the attempts run out.
func Decide(tok machine.Token, attempt int) Action {
	switch tok {
	case machine.TokenFly:
		return ActionSucceed
	case machine.TokenNoFly:
		switch attempt {
		case 0, 2:
			return ActionPurge
		case 1:
			return ActionRedispense
		}
		return ActionNone
	case machine.TokenTimeout:
		if attempt < 2 {
			return ActionRedispense
		}
		return ActionFail
	}
	return ActionFail
}
