package agent

import (
	"fmt"
	"strings"

	"github.com/natshell-dev/natshell/pkg/tools"
)

// behaviorRules are the fixed conduct lines every system prompt carries,
// independent of platform or task.
var behaviorRules = []string{
	"Use a tool whenever a claim can be checked instead of guessed.",
	"Never invent file contents, command output, or paths you have not read or run.",
	"Prefer the narrowest tool that answers the question (list/search before shell).",
	"State assumptions explicitly when a request is ambiguous rather than picking silently.",
	"Treat a tool result's error field as authoritative even if it contradicts prior reasoning.",
}

func roleText(p Platform) string {
	switch p {
	case PlatformMacOS:
		return "You are an interactive shell assistant running natively on macOS."
	case PlatformLinuxWSL:
		return "You are an interactive shell assistant running on Linux under WSL on a Windows host."
	default:
		return "You are an interactive shell assistant running natively on Linux."
	}
}

// BuildSystemPrompt assembles the IDLE-initialization system prompt: role,
// behavior rules, tool catalogue, the compact system-info block, and an
// optional multi-step preamble describing the task's tech stack and
// conventions.
func BuildSystemPrompt(info SystemInfo, schemas []tools.Schema, taskPreamble string) string {
	var b strings.Builder

	fmt.Fprintln(&b, roleText(info.Platform))
	b.WriteString("\n")

	b.WriteString("Behavior rules:\n")
	for _, r := range behaviorRules {
		fmt.Fprintf(&b, "- %s\n", r)
	}
	b.WriteString("\n")

	b.WriteString("Available tools:\n")
	for _, s := range schemas {
		fmt.Fprintf(&b, "- %s: %s\n", s.Name, s.Description)
	}
	b.WriteString("\n")

	b.WriteString("System info:\n")
	b.WriteString(renderSystemInfo(info))

	if strings.TrimSpace(taskPreamble) != "" {
		b.WriteString("\nTask context:\n")
		b.WriteString(taskPreamble)
		b.WriteString("\n")
	}

	return b.String()
}

func renderSystemInfo(info SystemInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- host: %s\n", orUnknown(info.Hostname))
	fmt.Fprintf(&b, "- os: %s\n", orUnknown(info.OSVersion))
	fmt.Fprintf(&b, "- kernel: %s\n", orUnknown(info.Kernel))
	fmt.Fprintf(&b, "- cpu: %s\n", orUnknown(info.CPU))
	fmt.Fprintf(&b, "- memory: %s\n", orUnknown(info.MemoryTotal))
	fmt.Fprintf(&b, "- user: %s\n", orUnknown(info.User))
	fmt.Fprintf(&b, "- sudo available: %v\n", info.SudoAvailable)
	fmt.Fprintf(&b, "- package manager: %s\n", orUnknown(info.PackageManager))
	fmt.Fprintf(&b, "- disks: %s\n", orUnknown(info.Disks))
	fmt.Fprintf(&b, "- network: %s\n", orUnknown(info.Network))
	fmt.Fprintf(&b, "- installed tools: %s\n", strings.Join(info.InstalledTools, ", "))
	fmt.Fprintf(&b, "- running services: %s\n", orUnknown(info.RunningServices))
	fmt.Fprintf(&b, "- containers: %s\n", orUnknown(info.Containers))
	return b.String()
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}
