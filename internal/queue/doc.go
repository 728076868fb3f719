// Package queue provides the two channels the pool is wired through: the job
// queue (coordinator to workers) and the result channel (workers to
// coordinator).
//
// Both are a Channel: a buffered Go channel paired with a disconnect signal.
// Many goroutines may Send and Receive concurrently; each element is delivered
// to exactly one receiver, and a single sender's elements arrive in send order.
// After Close every pending or future Send and Receive fails with
// ErrDisconnected instead of blocking forever or panicking.
//
// The job queue carries a Message, which is either a JobMessage or a Stop:
//
//	switch m := msg.(type) {
//	case queue.JobMessage:
//	    process(m.Job)
//	case queue.Stop:
//	    return
//	}
package queue
