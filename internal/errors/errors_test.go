package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestContainifyError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *ContainifyError
		wantMsg string
	}{
		{
			name:    "without cause",
			err:     New(ExitGeneralError, "something went wrong"),
			wantMsg: "something went wrong",
		},
		{
			name:    "with cause",
			err:     Wrap(ExitGeneralError, "operation failed", fmt.Errorf("underlying error")),
			wantMsg: "operation failed: underlying error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestContainifyError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := Wrap(ExitGeneralError, "wrapped", cause)

	if unwrapped := err.Unwrap(); unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	// Without cause
	errNoCause := New(ExitGeneralError, "no cause")
	if unwrapped := errNoCause.Unwrap(); unwrapped != nil {
		t.Errorf("Unwrap() = %v, want nil", unwrapped)
	}
}

func TestContainifyError_ExitCode(t *testing.T) {
	tests := []struct {
		code int
		name string
	}{
		{ExitSuccess, "success"},
		{ExitGeneralError, "general"},
		{ExitValidation, "validation"},
		{ExitDuplicateName, "duplicate name"},
		{ExitNotFound, "not found"},
		{ExitBackendUnavailable, "backend unavailable"},
		{ExitProvisionFailed, "provision failed"},
		{ExitDestroyFailed, "destroy failed"},
		{ExitRunFailed, "run failed"},
		{ExitInstallFailed, "install failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, "test")
			if got := err.ExitCode(); got != tt.code {
				t.Errorf("ExitCode() = %d, want %d", got, tt.code)
			}
		})
	}
}

func TestExitCodesAreDistinct(t *testing.T) {
	codes := []int{
		ExitSuccess,
		ExitGeneralError,
		ExitValidation,
		ExitDuplicateName,
		ExitNotFound,
		ExitBackendUnavailable,
		ExitProvisionFailed,
		ExitDestroyFailed,
		ExitRunFailed,
		ExitInstallFailed,
	}

	seen := make(map[int]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("exit code %d is used more than once", code)
		}
		seen[code] = true
	}
}

func TestDuplicateName(t *testing.T) {
	err := DuplicateName("myapp")

	if err.Code != ExitDuplicateName {
		t.Errorf("Code = %d, want %d", err.Code, ExitDuplicateName)
	}

	if err.Message != "container already exists: myapp" {
		t.Errorf("Message = %q", err.Message)
	}
}

func TestNotFound(t *testing.T) {
	err := NotFound("myapp")

	if err.Code != ExitNotFound {
		t.Errorf("Code = %d, want %d", err.Code, ExitNotFound)
	}
}

func TestBackendUnavailable(t *testing.T) {
	cause := fmt.Errorf("dial unix /var/run/docker.sock: connection refused")
	err := BackendUnavailable("docker", cause)

	if err.Code != ExitBackendUnavailable {
		t.Errorf("Code = %d, want %d", err.Code, ExitBackendUnavailable)
	}

	if !errors.Is(err, cause) {
		t.Error("BackendUnavailable should wrap its cause")
	}
}

func TestInstallFailed_CarriesCause(t *testing.T) {
	cause := fmt.Errorf("No matching distribution found for nosuchpkg")
	err := InstallFailed("myapp", cause)

	if !errors.Is(err, cause) {
		t.Error("InstallFailed should wrap the installer's error")
	}

	want := "failed to install packages in container myapp: No matching distribution found for nosuchpkg"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "containify error",
			err:  NotFound("x"),
			want: ExitNotFound,
		},
		{
			name: "wrapped containify error",
			err:  fmt.Errorf("context: %w", DuplicateName("x")),
			want: ExitDuplicateName,
		},
		{
			name: "plain error",
			err:  fmt.Errorf("plain"),
			want: ExitGeneralError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetExitCode(tt.err); got != tt.want {
				t.Errorf("GetExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPartialDestroy(t *testing.T) {
	cause := fmt.Errorf("device or resource busy")
	err := &PartialDestroy{Name: "myapp", Residue: "/containify/containers/myapp", Cause: cause}

	if !errors.Is(err, cause) {
		t.Error("PartialDestroy should wrap its cause")
	}

	var pd *PartialDestroy
	if !errors.As(err, &pd) {
		t.Error("errors.As should find PartialDestroy")
	}
}
