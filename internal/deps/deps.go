// Package deps checks that the executables behind command adapters and the
// publish hook are installed.
package deps

import (
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"fischpipe/internal/config"
)

// Requirement names one executable a pipeline step runs.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a requirement.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Path        string
	Detail      string
}

// FromConfig lists the executables referenced by command adapters and the
// publish command, one requirement per distinct executable.
func FromConfig(cfg *config.Config) []Requirement {
	if cfg == nil {
		return nil
	}
	users := map[string][]string{}
	for _, adapter := range cfg.Pipeline.Adapters {
		if len(adapter.Command) == 0 {
			continue
		}
		bin := strings.TrimSpace(adapter.Command[0])
		users[bin] = append(users[bin], adapter.Name)
	}
	if len(cfg.Pipeline.PublishCommand) > 0 {
		bin := strings.TrimSpace(cfg.Pipeline.PublishCommand[0])
		users[bin] = append(users[bin], "publish")
	}

	bins := make([]string, 0, len(users))
	for bin := range users {
		bins = append(bins, bin)
	}
	sort.Strings(bins)

	out := make([]Requirement, 0, len(bins))
	for _, bin := range bins {
		out = append(out, Requirement{
			Name:        bin,
			Command:     bin,
			Description: "Used by " + strings.Join(users[bin], ", "),
		})
	}
	return out
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		path, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		status.Path = path
		results = append(results, status)
	}
	return results
}
