// Package op defines the typed operation envelope routed between entities.
// The core never parses wire bytes itself — it only ever sees and produces
// values of this type.
package op

import "github.com/worldforge-go/simcore/internal/eid"

// Class identifies an operation's type. It is a string so that it matches
// the wire envelope's "parent" class name directly.
type Class string

const (
	ClassMove         Class = "move"
	ClassSet          Class = "set"
	ClassCreate       Class = "create"
	ClassDelete       Class = "delete"
	ClassSight        Class = "sight"
	ClassSound        Class = "sound"
	ClassAppearance   Class = "appearance"
	ClassDisappearance Class = "disappearance"
	ClassLook         Class = "look"
	ClassTalk         Class = "talk"
	ClassTouch        Class = "touch"
	ClassWield        Class = "wield"
	ClassUse          Class = "use"
	ClassTick         Class = "tick"
	ClassThought      Class = "thought"
	ClassRelay        Class = "relay"
	ClassUnseen       Class = "unseen"
	ClassImaginary    Class = "imaginary"
	ClassLogout       Class = "logout"
	ClassLogin        Class = "login"
	ClassInfo         Class = "info"
	ClassError        Class = "error"
	ClassThink        Class = "think"
	ClassGoalInfo     Class = "goal_info"
	ClassGet          Class = "get"
)

// Op is the decoded operation envelope.
type Op struct {
	Class Class
	From  eid.ID
	To    eid.ID

	SerialNo uint64 // unique per session, >= 1 when set
	RefNo    uint64 // serial of the op being replied to, 0 if none

	// FutureMilliseconds schedules delivery `now + FutureMilliseconds` in
	// the future; 0 means "as soon as possible".
	FutureMilliseconds int64

	// Args is the ordered list of root objects or sub-operations. An
	// argument is either an Op or *Op (a wrapped sub-operation, e.g.
	// Thought's inner op) or an arbitrary element (entity reference map,
	// number, string, ...).
	Args []any

	// UnresolvedType names the type a handler is waiting on when it parks
	// this op with a WillRedispatch verdict; empty otherwise. The router
	// keys its continuation registry on this field.
	UnresolvedType string
}

// Vector is what a handler returns: zero or more follow-up operations
// produced while processing one dispatched op ("OpVector").
type Vector []Op

// New builds a bare operation. Optional args can be appended with Arg.
func New(class Class, from, to eid.ID) Op {
	return Op{Class: class, From: from, To: to}
}

// Arg appends one argument and returns the op for chaining.
func (o Op) Arg(a any) Op {
	o.Args = append(o.Args, a)
	return o
}

// Reply builds a response operation addressed back to the op's origin,
// carrying the original serial as RefNo.
func (o Op) Reply(class Class, from eid.ID) Op {
	return Op{Class: class, From: from, To: o.From, RefNo: o.SerialNo}
}

// FirstArgOp returns the first argument if it is itself an operation (the
// "inner op" pattern used by Thought/Use), and whether one was present.
func (o Op) FirstArgOp() (Op, bool) {
	for _, a := range o.Args {
		if inner, ok := a.(Op); ok {
			return inner, true
		}
		if innerPtr, ok := a.(*Op); ok {
			return *innerPtr, true
		}
	}
	return Op{}, false
}

// ClientError builds a ClientError reply to an invalid op from a mind: the
// reply goes back to the originating entity and the op itself is not
// propagated further.
func ClientError(origin Op, from eid.ID, message string) Op {
	return origin.Reply(ClassError, from).Arg(message)
}

// Unseen builds an Unseen reply: target id does not resolve.
func Unseen(origin Op, from eid.ID, targetID eid.ID) Op {
	return origin.Reply(ClassUnseen, from).Arg(targetID)
}
