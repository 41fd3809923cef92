// Package sim provides the hierarchical discrete-event simulation kernel for devsim.
//
// # Reading Guide
//
// Start with these files to understand the kernel:
//   - port.go: typed FIFO ports, the unit of data exchange between models
//   - model.go, coupled.go: atomic and coupled model capabilities, couplings
//   - processor_atomic.go, processor_coupled.go: the two-phase step protocol
//   - reconciler.go: ordering and dispatch of structural change requests
//   - simulator.go: Advance, TimeOfNextInternalEvent, ApplyPendingStructuralChanges
//
// # Step Protocol
//
// Every model gets exactly one processor; the processor tree mirrors the model
// tree. A step at time t = min tonie runs in two phases:
//   - output: imminent atomic processors run their output function and send an
//     OutputMessage to their parent, which routes the values along its couplings
//   - transition: each child that is imminent or received input runs its
//     confluent, internal or external transition and sends a CompletionMessage
//     carrying its new tonie; a coupled processor's tonie is the minimum over its children
//
// Messages are direct calls on the parent's MessageHandler. Children are visited
// in submodel insertion order, which makes simultaneous events deterministic.
//
// # Structural Change
//
// Models queue ChangeRequests on their ChangeList while they transition. After
// the step the Reconciler sorts the batch by kind priority (model-add first,
// model-remove last), resolves each request's context and hands the requests to
// the context's ApplyChanges. The simulator then re-synchronises the processors
// of every touched context.
package sim
