package launch

import (
	"testing"
)

func TestReplaceEmptyArgv(t *testing.T) {
	if err := Replace(nil, nil); err == nil {
		t.Fatal("expected error for empty argv")
	}
}

func TestReplaceUnresolvable(t *testing.T) {
	if err := Replace([]string{"definitely-not-a-binary-anywhere"}, nil); err == nil {
		t.Fatal("expected lookup error")
	}
}

func TestReplaceCallsExec(t *testing.T) {
	orig := execve
	t.Cleanup(func() { execve = orig })

	var gotPath string
	var gotArgv []string
	var gotEnv []string
	execve = func(path string, argv []string, env []string) error {
		gotPath, gotArgv, gotEnv = path, argv, env
		return nil
	}
	// "sh" resolves on any platform these tests run on
	if err := Replace([]string{"sh", "-c", "true"}, []string{"A=1"}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if gotPath == "" {
		t.Fatal("path not resolved")
	}
	if len(gotArgv) != 3 || gotArgv[0] != "sh" || gotArgv[2] != "true" {
		t.Fatalf("argv: %v", gotArgv)
	}
	if len(gotEnv) != 1 || gotEnv[0] != "A=1" {
		t.Fatalf("env: %v", gotEnv)
	}
}
