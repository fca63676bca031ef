package ws

const (
	// client → server
	MsgReady     = "ready"
	MsgAnswer    = "answer"
	MsgComponent = "component"
	MsgConfigure = "configure"
	MsgReset     = "reset"

	// server → client
	MsgState       = "state"
	MsgResetNotice = "reset_notice"
	MsgRound       = "round_result"
	MsgComplete    = "challenge_complete"
	MsgError       = "error"
)
