package sim

// PortValues is the batch of values one port produced in a step.
type PortValues struct {
	Port   string
	Values []any
}

// OutputMessage carries a model's produced port values to its parent.
// It is created by the sending processor and consumed once by the receiver.
type OutputMessage struct {
	Time   Time
	Values []PortValues
}

// CompletionMessage tells a parent that a child finished its step and when it wants to fire next.
type CompletionMessage struct {
	Time            Time
	TimeOfNextEvent Time
}

// MessageHandler is the receiving end of the upward hand-off. Sending a message
// is a direct call to the parent's handler; nothing is queued.
type MessageHandler interface {
	HandleOutput(from Processor, msg *OutputMessage) error
	HandleCompletion(from Processor, msg CompletionMessage)
}

// drainOutputs moves every pending output value of ps into a message, clearing
// the ports. Returns nil when no port holds a value.
func drainOutputs(ps *PortSet, now Time) *OutputMessage {
	var msg *OutputMessage
	for _, p := range ps.All() {
		if !p.HasValue() {
			continue
		}
		if msg == nil {
			msg = &OutputMessage{Time: now}
		}
		msg.Values = append(msg.Values, PortValues{Port: p.Name(), Values: p.ReadAll()})
		p.Clear()
	}
	return msg
}
