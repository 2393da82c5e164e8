// Package preflight checks directories and external tools before a run.
//
// The doctor command renders every result; sync and mux call RunAll to fail
// fast when a required tool is missing or a library root is not writable.
package preflight
