package orchestrator

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// CommandAdapter runs a configured shell command as the side effect of an
// action. The command sees the action, run id, and request id in its
// environment and its non-zero exit is reported as a FAILED result, not an
// error, so later adapters are skipped but the plan stays schema-valid.
type CommandAdapter struct {
	name string
	cmd  string
	now  Clock
}

// NewCommandAdapter builds an adapter that runs cmd through `sh -c`.
func NewCommandAdapter(name, cmd string, now Clock) (*CommandAdapter, error) {
	if name == "" {
		return nil, fmt.Errorf("adapter name is required")
	}
	if strings.TrimSpace(cmd) == "" {
		return nil, fmt.Errorf("adapter %q: command is required", name)
	}
	if now == nil {
		now = time.Now
	}
	return &CommandAdapter{name: name, cmd: cmd, now: now}, nil
}

func (a *CommandAdapter) Name() string {
	return a.name
}

func (a *CommandAdapter) Execute(ctx context.Context, action string, ec Context) (AdapterResult, error) {
	log.Debug().
		Str("adapter", a.name).
		Str("action", action).
		Str("run_id", ec.RunID).
		Msg("running adapter command")

	cmd := exec.CommandContext(ctx, "sh", "-c", a.cmd)
	cmd.Env = append(os.Environ(),
		"RELGATE_ACTION="+action,
		"RELGATE_RUN_ID="+ec.RunID,
		"RELGATE_REQUEST_ID="+ec.ActionRequestID,
	)
	out, err := cmd.CombinedOutput()
	res := AdapterResult{
		Adapter:   a.name,
		Timestamp: a.now().UTC().Format(time.RFC3339),
	}
	if err != nil {
		res.Status = ResultFailed
		res.Message = strings.TrimSpace(fmt.Sprintf("%v: %s", err, strings.TrimSpace(string(out))))
		return res, nil
	}
	res.Status = ResultSuccess
	res.Message = strings.TrimSpace(string(out))
	return res, nil
}
