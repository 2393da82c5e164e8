package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// AlignerScript mimics an aligner invoked as `<bin> <video> -i <sub> -o <out>`:
// it writes "synced:" followed by the input subtitle's content to out.
const AlignerScript = `#!/bin/sh
in=""
out=""
while [ $# -gt 0 ]; do
  case "$1" in
    -i) in="$2"; shift 2 ;;
    -o) out="$2"; shift 2 ;;
    *) shift ;;
  esac
done
printf 'synced:%s' "$(cat "$in")" > "$out"
`

// MkvmergeScript writes a placeholder container to the -o argument.
const MkvmergeScript = `#!/bin/sh
out=""
while [ $# -gt 0 ]; do
  case "$1" in
    -o) out="$2"; shift 2 ;;
    *) shift ;;
  esac
done
printf 'mkv' > "$out"
`

// FailingScript exits with code after printing msg on stderr.
func FailingScript(code int, msg string) string {
	return fmt.Sprintf("#!/bin/sh\necho %q >&2\nexit %d\n", msg, code)
}

// WriteScript writes an executable script to dir/name and returns its path.
func WriteScript(t testing.TB, dir, name, script string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir bin dir: %v", err)
	}
	target := filepath.Join(dir, name)
	if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return target
}
