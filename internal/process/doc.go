// Package process supervises a single long-running external process.
//
// A Supervisor owns at most one running subprocess at a time (for example the
// MediaMTX daemon). Start, Stop and Status are serialized by one mutex:
//   - Start spawns the process detached from the caller's standard streams
//     and fails with ErrAlreadyRunning when a process is already held
//   - Stop removes the handle from the supervisor before terminating it, then
//     runs a best-effort cleanup sweep for stray processes matching a pattern
//   - Status reports idle or running without side effects
//
// Spawning, termination and the sweep go through the Launcher and Sweeper
// interfaces so tests can substitute fakes for the OS primitives.
//
// Example usage:
//
//	sup := process.NewSupervisor(&process.SupervisorOptions{
//	    Launcher:       process.NewExecLauncher(logger),
//	    Sweeper:        process.NewPgrepSweeper(logger),
//	    CleanupPattern: "mediamtx",
//	    Logger:         logger,
//	})
//	info, err := sup.Start("/usr/local/bin/mediamtx", []string{"/etc/mediamtx/mediamtx.yml"})
//	...
//	result, err := sup.Stop()
//
// The cleanup sweep matches by command line, so it can also signal unrelated
// processes whose command line contains the pattern. It never signals the
// supervising process or its parent.
package process
