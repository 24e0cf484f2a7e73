package probe

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"
)

// fakeTool writes a shell script that fails with "No such device" the
// first n times it is invoked (tracked via a counter file), then succeeds
// with empty output.
func fakeTool(t *testing.T, failures int) string {
	t.Helper()
	dir := t.TempDir()
	counter := filepath.Join(dir, "count")
	if err := os.WriteFile(counter, []byte("0"), 0o600); err != nil {
		t.Fatal(err)
	}
	script := filepath.Join(dir, "wg")
	body := "#!/bin/sh\n" +
		"n=$(cat '" + counter + "')\n" +
		"n=$((n+1))\n" +
		"echo $n > '" + counter + "'\n" +
		"if [ $n -le " + strconv.Itoa(failures) + " ]; then\n" +
		"  echo 'No such device' >&2\n" +
		"  exit 1\n" +
		"fi\n" +
		"exit 0\n"
	if err := os.WriteFile(script, []byte(body), 0o700); err != nil {
		t.Fatal(err)
	}
	return script
}

func TestWaitForInterfaceRetriesUntilPresent(t *testing.T) {
	tool := fakeTool(t, 2)
	p := &Probe{Tool: tool, Iface: "wg0"}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	start := time.Now()
	err := WaitForInterface(ctx, p, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("WaitForInterface() = %v; want nil", err)
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Fatal("WaitForInterface returned before enough retries elapsed")
	}
}

func TestWaitForInterfacePropagatesOtherErrors(t *testing.T) {
	dir := t.TempDir()
	script := dir + "/wg"
	os.WriteFile(script, []byte("#!/bin/sh\necho 'Operation not permitted' >&2\nexit 1\n"), 0o700)
	p := &Probe{Tool: script, Iface: "wg0"}
	err := WaitForInterface(context.Background(), p, time.Millisecond)
	if err == nil {
		t.Fatal("expected an error")
	}
	perr, ok := err.(*Error)
	if !ok || perr.Kind != NeedElevation {
		t.Fatalf("err = %v; want NeedElevation", err)
	}
}
