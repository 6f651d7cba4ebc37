package app

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	MarkSlow
	KickMember
	DropFrame
)

// Policy decides what happens to a connection whose send queue is full.
type Policy interface {
	OnBackPressure(sid SessionID) BackpressureAction
}

// SimplePolicy kicks every slow connection.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(SessionID) BackpressureAction {
	return KickMember
}

// PolicyFunc adapts a function to Policy.
type PolicyFunc func(sid SessionID) BackpressureAction

func (f PolicyFunc) OnBackPressure(sid SessionID) BackpressureAction { return f(sid) }
