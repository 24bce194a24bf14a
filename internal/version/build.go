package version

import (
	"fmt"
	"runtime"
)

// Set at link time by the release build.
var (
	Version   = "dev"
	Commit    = "unknown"
	Date      = "unknown"
	GoVersion = "unknown"
)

func PrintVersion() {
	fmt.Println("Tapline - version manager for externally released binaries")
	fmt.Printf("  %-12s %s\n", "Version:", Version)
	fmt.Printf("  %-12s %s\n", "Go Version:", GoVersion)
	fmt.Printf("  %-12s %s\n", "Git Commit:", Commit)
	fmt.Printf("  %-12s %s\n", "Built:", Date)
	fmt.Printf("  %-12s %s/%s\n", "OS/Arch:", runtime.GOOS, runtime.GOARCH)
}
