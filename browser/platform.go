package browser

import (
	"path"
	"strings"
)

const (
	linuxChrome   = "/usr/bin/google-chrome"
	darwinChrome  = "/Applications/Google Chrome.app/Contents/MacOS/Google Chrome"
	windowsChrome = `Google\Chrome\Application\chrome.exe`

	defaultProgramFiles = `C:\Program Files`
)

// ResolveExecutable returns the fixed Chrome install path for goos. On 64-bit
// Windows Chrome usually lives under the 32-bit program files directory.
// getenv is usually os.Getenv.
func ResolveExecutable(goos, goarch string, getenv func(string) string) (string, error) {
	switch goos {
	case "windows":
		programFiles := ""
		if getenv != nil {
			if goarch == "amd64" {
				programFiles = getenv("PROGRAMFILES(X86)")
			}
			if programFiles == "" {
				programFiles = getenv("PROGRAMFILES")
			}
		}
		if programFiles == "" {
			programFiles = defaultProgramFiles
		}
		return windowsJoin(programFiles, windowsChrome), nil
	case "linux":
		return path.Clean(linuxChrome), nil
	case "darwin":
		return path.Clean(darwinChrome), nil
	default:
		return "", ErrPlatformUnsupported{GOOS: goos}
	}
}

// windowsJoin joins and normalises a Windows path independent of the host OS.
func windowsJoin(dir, rel string) string {
	dir = strings.TrimRight(strings.ReplaceAll(dir, "/", `\`), `\`)
	rel = strings.TrimLeft(strings.ReplaceAll(rel, "/", `\`), `\`)
	joined := dir + `\` + rel
	for strings.Contains(joined, `\\`) {
		joined = strings.ReplaceAll(joined, `\\`, `\`)
	}
	return joined
}
