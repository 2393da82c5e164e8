package subtitles

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

// DefaultBackupSuffix is appended to the original subtitle on promotion.
const DefaultBackupSuffix = ".old"

// renameFunc is swapped in tests to simulate rename failures.
var renameFunc = os.Rename

// Phase is the observable state of a promotion.
type Phase int

const (
	// PhaseOriginal: nothing has been renamed.
	PhaseOriginal Phase = iota
	// PhaseBackedUp: the original sits at Backup, the synced file still at
	// Synced, and the canonical name is missing.
	PhaseBackedUp
	// PhasePromoted: Backup holds the original and Subtitle the synced result.
	PhasePromoted
)

func (p Phase) String() string {
	switch p {
	case PhaseOriginal:
		return "original"
	case PhaseBackedUp:
		return "backed_up"
	case PhasePromoted:
		return "promoted"
	default:
		return "unknown"
	}
}

// BackupState records where each file ended up.
type BackupState struct {
	Subtitle string
	Backup   string
	Synced   string
	Phase    Phase
}

// ReplaceError reports a failed promotion step. Stage is "backup" when the
// first rename failed (nothing changed) or "promote" when the second failed
// and the library is in the PhaseBackedUp state.
type ReplaceError struct {
	Stage    string
	Subtitle string
	Backup   string
	Synced   string
	Err      error
}

func (e *ReplaceError) Error() string {
	if e.Stage == "promote" {
		return fmt.Sprintf("promote %s failed; original preserved at %s, synced result left at %s: %v",
			e.Subtitle, e.Backup, e.Synced, e.Err)
	}
	return fmt.Sprintf("backup %s to %s failed; nothing changed: %v", e.Subtitle, e.Backup, e.Err)
}

func (e *ReplaceError) Unwrap() error { return e.Err }

// Promoter replaces subtitles with their synced versions.
type Promoter struct {
	BackupSuffix string
}

// Promote uses the default ".old" backup suffix.
func Promote(subtitle, synced string) (BackupState, error) {
	return Promoter{}.Promote(subtitle, synced)
}

// Promote renames subtitle to its backup name and then synced to subtitle.
// The second rename never runs unless the first succeeded. Failures are
// returned as *ReplaceError and never retried.
func (p Promoter) Promote(subtitle, synced string) (BackupState, error) {
	state := BackupState{Subtitle: subtitle, Synced: synced, Phase: PhaseOriginal}
	if _, err := os.Stat(synced); err != nil {
		return state, fmt.Errorf("promote %s: synced file: %w", subtitle, err)
	}
	backup, err := p.backupPath(subtitle)
	if err != nil {
		return state, err
	}
	state.Backup = backup

	if err := renameFunc(subtitle, backup); err != nil {
		return state, &ReplaceError{Stage: "backup", Subtitle: subtitle, Backup: backup, Synced: synced, Err: err}
	}
	state.Phase = PhaseBackedUp

	if err := renameFunc(synced, subtitle); err != nil {
		return state, &ReplaceError{Stage: "promote", Subtitle: subtitle, Backup: backup, Synced: synced, Err: err}
	}
	state.Phase = PhasePromoted
	return state, nil
}

// backupPath returns <subtitle><suffix>, or the first free numbered variant
// (<subtitle><suffix>.1, ...) when an earlier backup already exists, so the
// pre-sync original from a previous run is never overwritten.
func (p Promoter) backupPath(subtitle string) (string, error) {
	suffix := p.BackupSuffix
	if suffix == "" {
		suffix = DefaultBackupSuffix
	}
	base := subtitle + suffix
	candidate := base
	for i := 1; ; i++ {
		_, err := os.Lstat(candidate)
		if errors.Is(err, os.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("promote %s: check backup %s: %w", subtitle, candidate, err)
		}
		candidate = base + "." + strconv.Itoa(i)
	}
}
