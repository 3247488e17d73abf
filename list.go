package serbridge

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Regular expressions for different types of serial devices
var serialPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^ttyUSB\d+$`), // USB serial adapters
	regexp.MustCompile(`^ttyACM\d+$`), // USB CDC/ACM devices
	regexp.MustCompile(`^ttyS\d+$`),   // Standard serial ports
	regexp.MustCompile(`^ttyAMA\d+$`), // ARM/Raspberry Pi serial
	regexp.MustCompile(`^ttymxc\d+$`), // i.MX serial ports
	regexp.MustCompile(`^ttyO\d+$`),   // OMAP serial ports
	regexp.MustCompile(`^ttySAC\d+$`), // Samsung serial ports
	regexp.MustCompile(`^ttyTHS\d+$`), // Tegra serial ports
}

// sysClassTTY is where the kernel exposes per-tty device links
var sysClassTTY = "/sys/class/tty"

// ListPorts returns the serial character devices under /dev, sorted
func ListPorts() ([]string, error) {
	return scanPorts("/dev")
}

func scanPorts(devDir string) ([]string, error) {
	entries, err := os.ReadDir(devDir)
	if err != nil {
		return nil, err
	}

	var ports []string
	for _, entry := range entries {
		if !isSerialName(entry.Name()) {
			continue
		}
		fullPath := filepath.Join(devDir, entry.Name())
		if isCharacterDevice(fullPath) {
			ports = append(ports, fullPath)
		}
	}

	sort.Strings(ports)
	return ports, nil
}

// isSerialName matches communication-capable tty names; virtual terminals,
// the console and pseudo-terminals never match.
func isSerialName(name string) bool {
	for _, pattern := range serialPatterns {
		if pattern.MatchString(name) {
			return true
		}
	}
	return false
}

// isCharacterDevice checks if the given path is a character device
func isCharacterDevice(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// PortInfo describes a serial device node
type PortInfo struct {
	Name         string
	Path         string
	Description  string
	VendorID     string
	ProductID    string
	SerialNumber string
	Manufacturer string
	Product      string
}

// GetPortInfo returns detailed information about a specific port
func GetPortInfo(portPath string) (*PortInfo, error) {
	if !isCharacterDevice(portPath) {
		return nil, ErrDeviceNotFound
	}

	name := filepath.Base(portPath)
	info := &PortInfo{
		Name:        name,
		Path:        portPath,
		Description: getPortDescription(name),
	}

	if strings.HasPrefix(name, "ttyUSB") || strings.HasPrefix(name, "ttyACM") {
		enrichUSBInfo(info, sysClassTTY)
	}

	return info, nil
}

// getPortDescription provides human-readable descriptions for different port types
func getPortDescription(name string) string {
	switch {
	case strings.HasPrefix(name, "ttyUSB"):
		return "USB Serial Port"
	case strings.HasPrefix(name, "ttyACM"):
		return "USB CDC/ACM Device"
	case strings.HasPrefix(name, "ttyAMA"):
		return "ARM Serial Port"
	case strings.HasPrefix(name, "ttymxc"):
		return "i.MX Serial Port"
	case strings.HasPrefix(name, "ttySAC"):
		return "Samsung Serial Port"
	case strings.HasPrefix(name, "ttyTHS"):
		return "Tegra Serial Port"
	case strings.HasPrefix(name, "ttyO"):
		return "OMAP Serial Port"
	case strings.HasPrefix(name, "ttyS"):
		return "Standard Serial Port"
	default:
		return "Serial Port"
	}
}

// enrichUSBInfo walks up from /sys/class/tty/<name>/device until it finds
// the USB device directory carrying idVendor.
func enrichUSBInfo(info *PortInfo, sysRoot string) {
	dir, err := filepath.EvalSymlinks(filepath.Join(sysRoot, info.Name, "device"))
	if err != nil {
		return
	}

	for i := 0; i < 4 && dir != "/" && dir != "."; i++ {
		if vendor := readSysfsFile(filepath.Join(dir, "idVendor")); vendor != "" {
			info.VendorID = vendor
			info.ProductID = readSysfsFile(filepath.Join(dir, "idProduct"))
			info.SerialNumber = readSysfsFile(filepath.Join(dir, "serial"))
			info.Manufacturer = readSysfsFile(filepath.Join(dir, "manufacturer"))
			info.Product = readSysfsFile(filepath.Join(dir, "product"))
			return
		}
		dir = filepath.Dir(dir)
	}
}

// readSysfsFile returns the trimmed file content, or "" if unreadable
func readSysfsFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
