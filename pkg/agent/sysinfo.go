package agent

import (
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Platform identifies the role text and system-info gathering strategy the
// system prompt builder selects.
type Platform string

const (
	PlatformMacOS    Platform = "macOS"
	PlatformLinux    Platform = "Linux"
	PlatformLinuxWSL Platform = "Linux (WSL)"
)

// SystemInfo is the compact host-environment block injected into the
// system prompt: host, OS, kernel, CPU, RAM, user, sudo availability,
// package manager, disks, network, installed tools, running services, and
// containers.
type SystemInfo struct {
	Platform        Platform
	Hostname        string
	OSVersion       string
	Kernel          string
	CPU             string
	MemoryTotal     string
	User            string
	SudoAvailable   bool
	PackageManager  string
	Disks           string
	Network         string
	InstalledTools  []string
	RunningServices string
	Containers      string
}

// SystemInfoProvider gathers the host facts that populate SystemInfo. This
// is an external collaborator: production code shells out to `uname`,
// `id`, and reads /proc (Linux/WSL) or calls `sw_vers`/`sysctl` (macOS);
// tests supply a fake.
type SystemInfoProvider interface {
	Gather() (SystemInfo, error)
}

// ShellSystemInfoProvider is the concrete SystemInfoProvider: it shells
// out to small, widely-available commands and tolerates any one of them
// being absent by leaving that field blank rather than failing the whole
// gather.
type ShellSystemInfoProvider struct{}

// Gather never returns a non-nil error: every probe degrades gracefully,
// since an incomplete system-info block is far less harmful than a failed
// agent startup.
func (ShellSystemInfoProvider) Gather() (SystemInfo, error) {
	info := SystemInfo{
		Platform:       detectPlatform(),
		Hostname:       firstLine(runOutput("hostname")),
		Kernel:         firstLine(runOutput("uname", "-r")),
		User:           firstLine(runOutput("id", "-un")),
		SudoAvailable:  commandExists("sudo"),
		PackageManager: detectPackageManager(),
	}

	switch info.Platform {
	case PlatformMacOS:
		info.OSVersion = firstLine(runOutput("sw_vers", "-productVersion"))
		info.CPU = firstLine(runOutput("sysctl", "-n", "machdep.cpu.brand_string"))
		info.MemoryTotal = firstLine(runOutput("sysctl", "-n", "hw.memsize"))
		info.Disks = firstLine(runOutput("df", "-h", "/"))
	default:
		info.OSVersion = readOSRelease()
		info.CPU = grepProc("/proc/cpuinfo", "model name")
		info.MemoryTotal = grepProc("/proc/meminfo", "MemTotal")
		info.Disks = firstLine(runOutput("df", "-h", "/"))
	}

	info.Network = firstLine(runOutput("hostname", "-I"))
	info.RunningServices = firstLine(runOutput("systemctl", "list-units", "--type=service", "--state=running", "--no-legend", "--no-pager"))
	info.Containers = firstLine(runOutput("docker", "ps", "--format", "{{.Names}}"))

	for _, tool := range []string{"git", "python3", "node", "go", "docker", "make"} {
		if commandExists(tool) {
			info.InstalledTools = append(info.InstalledTools, tool)
		}
	}

	return info, nil
}

func detectPlatform() Platform {
	switch runtime.GOOS {
	case "darwin":
		return PlatformMacOS
	case "linux":
		if isWSL() {
			return PlatformLinuxWSL
		}
		return PlatformLinux
	default:
		return PlatformLinux
	}
}

func isWSL() bool {
	b, err := os.ReadFile("/proc/sys/kernel/osrelease")
	if err != nil {
		return false
	}
	lower := strings.ToLower(string(b))
	return strings.Contains(lower, "microsoft") || strings.Contains(lower, "wsl")
}

func detectPackageManager() string {
	candidates := []string{"apt", "apt-get", "dnf", "yum", "pacman", "brew", "apk"}
	for _, c := range candidates {
		if commandExists(c) {
			return c
		}
	}
	return ""
}

func commandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func runOutput(name string, args ...string) string {
	if !commandExists(name) {
		return ""
	}
	out, err := exec.Command(name, args...).Output()
	if err != nil {
		return ""
	}
	return string(out)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

func readOSRelease() string {
	b, err := os.ReadFile("/etc/os-release")
	if err != nil {
		return firstLine(runOutput("uname", "-sr"))
	}
	for _, line := range strings.Split(string(b), "\n") {
		if strings.HasPrefix(line, "PRETTY_NAME=") {
			return strings.Trim(strings.TrimPrefix(line, "PRETTY_NAME="), `"`)
		}
	}
	return firstLine(runOutput("uname", "-sr"))
}

func grepProc(path, prefix string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(b), "\n") {
		if strings.HasPrefix(line, prefix) {
			parts := strings.SplitN(line, ":", 2)
			if len(parts) == 2 {
				return strings.TrimSpace(parts[1])
			}
		}
	}
	return ""
}
