// Package pool is the coordinator of a fixed-size worker pool.
//
// A Pool owns the producer end of the job queue and the consumer end of the
// result channel. Its lifecycle runs in a fixed order:
//
//	p := pool.New(pool.DefaultConfig()) // one worker per physical core
//	p.Start()                           // spawn the workers
//	p.Dispatch(jobs)                    // enqueue every job
//	results, err := p.Collect(len(jobs))// exactly one result per job
//	p.Shutdown()                        // one Stop per worker
//	p.Join()                            // wait for every worker to exit
//
// Run performs the whole sequence, overlapping dispatch with collection.
//
// # Balance
//
// Shutdown refuses to send stop signals while any dispatched job is still
// uncollected (ErrUnbalanced). Because every dispatched job has produced its
// result by then, the queue holds nothing but the stop signals, and each of
// the N workers consumes exactly one of the N stops.
//
// # Failure
//
// A worker that cannot deliver a result, loses its queue or panics ends the
// run. The pool disconnects both channels, Collect returns ErrWorkerLost
// without a partial result set, and Join reports the worker's error.
package pool
