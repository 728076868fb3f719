// Package worker implements the pool's unit of concurrent execution.
//
// A Worker has two states, running and terminated. While running it loops:
//
//  1. block on the shared job queue
//  2. on a JobMessage, run its Task on the job and send a Result carrying the
//     worker id on the shared result channel
//  3. on a Stop, return
//
// Jobs are handled strictly one at a time. A worker never re-enqueues or
// re-runs a job, and it never stops on its own accord: only a Stop, a
// disconnected channel or a panicking Task ends the loop, and the latter two
// are returned from Run as errors so the coordinator can surface them.
//
// # Basic Usage
//
//	w := worker.New(0, jobs, results, worker.Config{
//	    Task: worker.Sleep(100 * time.Millisecond),
//	})
//	go func() { errCh <- w.Run() }()
package worker
