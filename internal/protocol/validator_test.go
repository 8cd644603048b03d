package protocol

import (
	goerrors "errors"
	"strings"
	"testing"

	"github.com/dak664/nanoresolv/internal/errors"
)

func TestValidateName_ValidNames(t *testing.T) {
	tests := []struct {
		name    string
		dnsName string
	}{
		{"simple name", "test.local"},
		{"printer name", "printer.local"},
		{"name with hyphens", "my-device.local"},
		{"multi-level name", "a.b.c.d.local"},
		{"single label", "contiki"},
		{"trailing dot stripped", "example.com."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateName(tt.dnsName); err != nil {
				t.Errorf("ValidateName(%q) = %v, want nil", tt.dnsName, err)
			}
		})
	}
}

func TestValidateName_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		dnsName string
	}{
		{"empty name", ""},
		{"consecutive dots", "foo..bar"},
		{"label starts with hyphen", "-foo.local"},
		{"label ends with hyphen", "foo-.local"},
		{"invalid character", "foo bar.local"},
		{"label too long", strings.Repeat("a", 64) + ".local"},
		{"name too long", strings.Repeat("a.", 130) + "local"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.dnsName)
			if err == nil {
				t.Fatalf("ValidateName(%q) = nil, want error", tt.dnsName)
			}
			var ve *errors.ValidationError
			if !goerrors.As(err, &ve) {
				t.Errorf("ValidateName(%q) error is not a *errors.ValidationError: %v", tt.dnsName, err)
			}
		})
	}
}

func TestValidateRecordType(t *testing.T) {
	tests := []struct {
		name       string
		recordType uint16
		wantErr    bool
	}{
		{"A supported", 1, false},
		{"AAAA supported", 28, false},
		{"ANY supported", 255, false},
		{"PTR not supported", 12, true},
		{"SRV not supported", 33, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRecordType(tt.recordType)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRecordType(%d) error = %v, wantErr %v", tt.recordType, err, tt.wantErr)
			}
		})
	}
}

func TestIsQuestion(t *testing.T) {
	if !IsQuestion(0, 0) {
		t.Errorf("IsQuestion(0,0) = false, want true")
	}
	if IsQuestion(Flags1Response, 0) {
		t.Errorf("IsQuestion(response,0) = true, want false")
	}
	if IsQuestion(0, RCodeNameErr) {
		t.Errorf("IsQuestion(0,rcode) = true, want false")
	}
}

func TestValidateResponse(t *testing.T) {
	if err := ValidateResponse(Flags1Response); err != nil {
		t.Errorf("ValidateResponse(response set) = %v, want nil", err)
	}
	if err := ValidateResponse(0); err == nil {
		t.Errorf("ValidateResponse(0) = nil, want error")
	}
}
