package guestfs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DriveKind distinguishes disk images from CD-ROM images.
type DriveKind int

const (
	DriveDisk DriveKind = iota
	DriveCDROM
)

func (k DriveKind) String() string {
	switch k {
	case DriveDisk:
		return "disk"
	case DriveCDROM:
		return "cdrom"
	default:
		return "unknown"
	}
}

// Drive is a host image attached to a handle.
type Drive struct {
	// Path is the host path of the image.
	Path string

	// ReadOnly prevents writes to the image. Always true for CD-ROMs.
	ReadOnly bool

	// Kind is the drive type.
	Kind DriveKind
}

// Device names a drive, or a partition on it, as seen by handle actions.
// Index 0 is /dev/sda; Partition 0 means the whole drive.
type Device struct {
	Index     int
	Partition int
}

const devicePrefix = "/dev/sd"

// maxDeviceLetters bounds drive names to /dev/sdzzz.
const maxDeviceLetters = 3

// DeviceName returns the device name for the drive at index i:
// 0 -> /dev/sda, 25 -> /dev/sdz, 26 -> /dev/sdaa.
func DeviceName(i int) string {
	return devicePrefix + driveLetters(i)
}

func driveLetters(i int) string {
	var b []byte
	for i >= 0 {
		b = append([]byte{byte('a' + i%26)}, b...)
		i = i/26 - 1
	}
	return string(b)
}

// String returns the device name, including the partition number if any.
func (d Device) String() string {
	name := DeviceName(d.Index)
	if d.Partition > 0 {
		name += strconv.Itoa(d.Partition)
	}
	return name
}

// ParseDevice parses names like /dev/sdb or /dev/sdab3.
func ParseDevice(name string) (Device, error) {
	rest, ok := strings.CutPrefix(name, devicePrefix)
	if !ok || rest == "" {
		return Device{}, fmt.Errorf("%w: %q", ErrInvalidDevice, name)
	}

	split := strings.IndexFunc(rest, func(r rune) bool { return r < 'a' || r > 'z' })
	letters, digits := rest, ""
	if split >= 0 {
		letters, digits = rest[:split], rest[split:]
	}
	if letters == "" || len(letters) > maxDeviceLetters {
		return Device{}, fmt.Errorf("%w: %q", ErrInvalidDevice, name)
	}

	index := 0
	for _, c := range letters {
		index = index*26 + int(c-'a') + 1
	}
	dev := Device{Index: index - 1}

	if digits != "" {
		part, err := strconv.Atoi(digits)
		if err != nil || part < 1 {
			return Device{}, fmt.Errorf("%w: %q", ErrInvalidDevice, name)
		}
		dev.Partition = part
	}
	return dev, nil
}

// checkReadable verifies the image exists, is a regular file and can be opened.
func checkReadable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s: is a directory", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	return f.Close()
}
