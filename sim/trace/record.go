// Package trace provides run-trace recording for the simulation kernel.
// It has no dependencies on sim/ and only stores plain data types.
package trace

// EventRecord captures one transition of an atomic model.
type EventRecord struct {
	Step            int
	Clock           float64
	Model           string // slash-separated model path
	Transition      string // internal, external or confluent
	TimeOfLastEvent float64
	TimeOfNextEvent float64 // +Inf when the model became passive
}

// OutputRecord captures the values a port of the root model emitted in one step.
type OutputRecord struct {
	Step   int
	Clock  float64
	Model  string
	Port   string
	Values []string // fmt %v rendering of each value
}

// ChangeRecord captures the outcome of one structural change request.
type ChangeRecord struct {
	Step    int
	Clock   float64
	Kind    string
	Context string // resolved context path, empty if resolution failed
	Request string
	Applied bool
	Reason  string
}
