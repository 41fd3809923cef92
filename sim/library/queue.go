package library

import "github.com/devsim/devsim/sim"

// Queue is a single-server FIFO: every job received on "in" leaves on "out"
// after waiting for the jobs ahead of it and one service time.
type Queue struct {
	sim.AtomicBase
	service sim.Time
	in      *sim.Port
	out     *sim.Port
	jobs    []int
	sigma   sim.Time
	served  int
}

// NewQueue creates an idle queue.
func NewQueue(name string, service sim.Time) *Queue {
	q := &Queue{AtomicBase: sim.NewAtomicBase(name), service: service, sigma: sim.Infinity}
	q.in = q.AddInPort(sim.NewPortOf[int]("in"))
	q.out = q.AddOutPort(sim.NewPortOf[int]("out"))
	return q
}

// Len returns the number of jobs waiting or in service.
func (q *Queue) Len() int { return len(q.jobs) }

// Served returns the number of completed jobs.
func (q *Queue) Served() int { return q.served }

func (q *Queue) TimeAdvance() sim.Time { return q.sigma }

func (q *Queue) Output(now sim.Time) error {
	if len(q.jobs) == 0 {
		return nil
	}
	return q.out.Write(q.jobs[0])
}

func (q *Queue) InternalTransition(now sim.Time) error {
	if len(q.jobs) == 0 {
		q.sigma = sim.Infinity
		return nil
	}
	q.jobs = q.jobs[1:]
	q.served++
	if len(q.jobs) > 0 {
		q.sigma = q.service
	} else {
		q.sigma = sim.Infinity
	}
	return nil
}

func (q *Queue) ExternalTransition(now, elapsed sim.Time) error {
	busy := len(q.jobs) > 0
	for {
		job, ok := sim.ReadAs[int](q.in)
		if !ok {
			break
		}
		q.jobs = append(q.jobs, job)
	}
	switch {
	case busy:
		q.sigma -= elapsed
	case len(q.jobs) > 0:
		q.sigma = q.service
	}
	return nil
}
