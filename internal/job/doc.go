// Package job defines the unit of work handed to the pool, the record a worker
// produces for it, and the source and sink collaborators at either end.
//
// A Source enumerates a finite sequence of jobs:
//
//	src := job.Synthetic{Count: 20} // "Job #0 data" .. "Job #19 data"
//
// A Sink receives every Result the coordinator collects:
//
//	var c job.Collector
//	// ... run the pool with &c as the sink ...
//	for _, r := range c.Results() {
//	    fmt.Println(r) // Worker 3 completed job with data 'Job #7 data'
//	}
package job
