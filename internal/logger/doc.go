// Package logger is the leveled, mutex-guarded logger shared by the pool,
// its workers and the API server.
//
// Every line has the form
//
//	[2006-01-02 15:04:05.000] [LEVEL] [scope] message
//
// where scope names the emitting component ("pool", "worker-2", "api") and is
// omitted when empty.
//
//	logger.Info("pool", "Found %d physical cores", n)
//
//	l := logger.New(os.Stderr, logger.LevelDebug)
//	l.Debug("worker-0", "received job %q", data)
//
// Level names from configuration files are converted with ParseLevel.
package logger
