// Package main hosts the sidecar CLI.
//
// Commands:
//
//	sidecar sync [ext...]        align and promote sidecar subtitles
//	sidecar mux add [ext...]     embed sidecar subtitles into <stem>.MUX.mkv
//	sidecar mux prune [ext...]   keep only tracks in the --lang keep-list
//	sidecar inspect [ext...]     report audio and subtitle stream languages
//	sidecar history              show the ledger of past outcomes
//	sidecar doctor               check external tools and directories
//	sidecar logs [-f]            show the newest --log session file
//	sidecar config init|validate|show
//
// The command layer only resolves configuration, opens the per-run session
// (logger, lock, ledger, metrics), and hands off to internal/workflow. The
// process exit status is the first failure's external tool status, 130 on
// interrupt, and 124 on timeout.
package main
