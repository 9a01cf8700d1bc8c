package guestfs

import (
	"errors"
	"testing"
)

func TestDeviceName(t *testing.T) {
	tests := []struct {
		index int
		want  string
	}{
		{0, "/dev/sda"},
		{1, "/dev/sdb"},
		{25, "/dev/sdz"},
		{26, "/dev/sdaa"},
		{27, "/dev/sdab"},
		{51, "/dev/sdaz"},
		{52, "/dev/sdba"},
		{701, "/dev/sdzz"},
		{702, "/dev/sdaaa"},
	}

	for _, tt := range tests {
		if got := DeviceName(tt.index); got != tt.want {
			t.Errorf("DeviceName(%d) = %q, want %q", tt.index, got, tt.want)
		}
	}
}

func TestParseDevice(t *testing.T) {
	tests := []struct {
		name    string
		want    Device
		wantErr bool
	}{
		{"/dev/sda", Device{Index: 0}, false},
		{"/dev/sdb1", Device{Index: 1, Partition: 1}, false},
		{"/dev/sdz12", Device{Index: 25, Partition: 12}, false},
		{"/dev/sdaa", Device{Index: 26}, false},
		{"/dev/sdaa3", Device{Index: 26, Partition: 3}, false},
		{"/dev/sdzzz", Device{Index: 18277}, false},
		{"/dev/sdaaaa", Device{}, true},
		{"/dev/sdzzzzzzzzzzzzzzzz", Device{}, true},
		{"/dev/sd", Device{}, true},
		{"/dev/sd1", Device{}, true},
		{"/dev/sda0", Device{}, true},
		{"/dev/sdA", Device{}, true},
		{"/dev/vda", Device{}, true},
		{"sda", Device{}, true},
		{"/dev/sda1b", Device{}, true},
		{"", Device{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDevice(tt.name)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDevice) {
					t.Errorf("ParseDevice(%q) error = %v, want ErrInvalidDevice", tt.name, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDevice(%q) failed: %v", tt.name, err)
			}
			if got != tt.want {
				t.Errorf("ParseDevice(%q) = %+v, want %+v", tt.name, got, tt.want)
			}
		})
	}
}

func TestDeviceStringRoundTrip(t *testing.T) {
	for _, name := range []string{"/dev/sda", "/dev/sdc2", "/dev/sdab", "/dev/sdzz9"} {
		dev, err := ParseDevice(name)
		if err != nil {
			t.Fatalf("ParseDevice(%q) failed: %v", name, err)
		}
		if dev.String() != name {
			t.Errorf("Device(%q).String() = %q", name, dev.String())
		}
	}
}

func TestDriveKindString(t *testing.T) {
	tests := []struct {
		kind DriveKind
		want string
	}{
		{DriveDisk, "disk"},
		{DriveCDROM, "cdrom"},
		{DriveKind(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("DriveKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateConfig, "config"},
		{StateReady, "ready"},
		{StateClosed, "closed"},
		{State(42), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
