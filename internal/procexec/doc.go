// Package procexec runs external tools (aligner, mkvmerge, ffprobe) as child
// processes.
//
// ExecRunner streams the child's stdout and stderr through to the caller's
// sinks while keeping a bounded tail of stderr for diagnostics. Cancellation
// and timeouts send the child an interrupt and then wait for it to exit; the
// child is never killed, so tools get the chance to clean up partial output.
// DryRunRunner prints the command line instead of spawning anything.
package procexec
