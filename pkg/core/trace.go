package core

import "github.com/tonkeeper/tongo/ton"

// Trace is a tree of transactions caused by one injected message.
type Trace struct {
	Transaction
	Children []*Trace
}

func (t *Trace) InProgress() bool {
	return t.countUncompleted() != 0
}

func (t *Trace) countUncompleted() int {
	c := len(t.OutMsgs) - len(t.Children)
	for _, st := range t.Children {
		c += st.countUncompleted()
	}
	return c
}

// Visit calls fn for every node of the trace, parents before children.
func Visit(trace *Trace, fn func(*Trace)) {
	fn(trace)
	for _, child := range trace.Children {
		Visit(child, fn)
	}
}

// Find returns the first transaction in the trace executed on the given account.
func (t *Trace) Find(account ton.AccountID) *Trace {
	var found *Trace
	Visit(t, func(node *Trace) {
		if found == nil && node.Account == account {
			found = node
		}
	})
	return found
}

// OutMessage returns the first outgoing message of the root transaction with the given operation code.
func (t *Trace) OutMessage(opCode uint32) *Message {
	for i := range t.OutMsgs {
		if t.OutMsgs[i].OpCode != nil && *t.OutMsgs[i].OpCode == opCode {
			return &t.OutMsgs[i]
		}
	}
	return nil
}
