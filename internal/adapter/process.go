// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package adapter

// ProcessRuntime is a Runtime (C3) implementation that starts each job as
// a local OS process, the simplest concrete realization of "the service
// runtime" this scheduler treats as an opaque, out-of-scope collaborator.
// It is built from os/exec plus a supervising goroutine, trimmed to just
// what the coordinator's contract needs (start/stop/pause/probe); actual
// output capture and artifact handling belong to that out-of-scope
// runtime, not to this scheduler core.

import (
	"context"
	"os/exec"
	"sync"
	"syscall"

	"github.com/go-stack/stack"
	"github.com/jjeffery/kv" // MIT License
	"github.com/rs/xid"

	"github.com/leaf-ai/batch-scheduler/internal/logger"
	"github.com/leaf-ai/batch-scheduler/internal/queue"
)

type procJob struct {
	cmd *exec.Cmd
}

// ProcessRuntime runs jobs as local processes, keyed by an xid-generated
// runtime id.
type ProcessRuntime struct {
	logger *logger.Logger

	mu   sync.Mutex
	jobs map[string]*procJob
}

// NewProcessRuntime returns a ready-to-use ProcessRuntime.
func NewProcessRuntime(log *logger.Logger) *ProcessRuntime {
	return &ProcessRuntime{
		logger: log,
		jobs:   make(map[string]*procJob),
	}
}

func commandLine(cfg queue.Config) (name string, args []string, err kv.Error) {
	if len(cfg.KV) != 0 {
		for _, kvp := range cfg.KV {
			if kvp.Key != "cmd" {
				continue
			}
			if s, ok := kvp.Value.(string); ok {
				return s, nil, nil
			}
		}
	}
	if cfg.Inline != nil {
		if s, ok := cfg.Inline["cmd"].(string); ok {
			argv, _ := cfg.Inline["args"].([]string)
			return s, argv, nil
		}
	}
	return "", nil, kv.NewError("job configuration has no cmd").With("stack", stack.Trace().TrimRuntime())
}

// Add implements Runtime.
func (p *ProcessRuntime) Add(ctx context.Context, queueName string, cfg queue.Config) (id string, err kv.Error) {
	name, args, err := commandLine(cfg)
	if err != nil {
		return "", err
	}

	cmd := exec.CommandContext(ctx, name, args...)

	if errGo := cmd.Start(); errGo != nil {
		return "", kv.Wrap(errGo).With("stack", stack.Trace().TrimRuntime()).With("queue", queueName).With("cmd", name)
	}

	id = xid.New().String()

	p.mu.Lock()
	p.jobs[id] = &procJob{cmd: cmd}
	p.mu.Unlock()

	go func() {
		_ = cmd.Wait()
	}()

	return id, nil
}

func (p *ProcessRuntime) lookup(id string) (*procJob, kv.Error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	j, ok := p.jobs[id]
	if !ok {
		return nil, ErrServiceNotFound
	}
	return j, nil
}

// Remove implements Runtime.
func (p *ProcessRuntime) Remove(ctx context.Context, id string) (err kv.Error) {
	j, err := p.lookup(id)
	if err != nil {
		return err
	}
	if errGo := j.cmd.Process.Signal(syscall.SIGTERM); errGo != nil {
		return kv.Wrap(errGo).With("stack", stack.Trace().TrimRuntime()).With("service_id", id)
	}

	p.mu.Lock()
	delete(p.jobs, id)
	p.mu.Unlock()
	return nil
}

// Suspend implements Runtime.
func (p *ProcessRuntime) Suspend(ctx context.Context, id string) (err kv.Error) {
	j, err := p.lookup(id)
	if err != nil {
		return err
	}
	if errGo := j.cmd.Process.Signal(syscall.SIGSTOP); errGo != nil {
		return kv.Wrap(errGo).With("stack", stack.Trace().TrimRuntime()).With("service_id", id)
	}
	return nil
}

// Resume implements Runtime.
func (p *ProcessRuntime) Resume(ctx context.Context, id string) (err kv.Error) {
	j, err := p.lookup(id)
	if err != nil {
		return err
	}
	if errGo := j.cmd.Process.Signal(syscall.SIGCONT); errGo != nil {
		return kv.Wrap(errGo).With("stack", stack.Trace().TrimRuntime()).With("service_id", id)
	}
	return nil
}

// Restart implements Runtime by signalling the process with SIGHUP,
// leaving in-place restart behavior up to the process itself.
func (p *ProcessRuntime) Restart(ctx context.Context, id string) (err kv.Error) {
	j, err := p.lookup(id)
	if err != nil {
		return err
	}
	if errGo := j.cmd.Process.Signal(syscall.SIGHUP); errGo != nil {
		return kv.Wrap(errGo).With("stack", stack.Trace().TrimRuntime()).With("service_id", id)
	}
	return nil
}

// Subscriptions implements Runtime's liveness probe by checking whether
// the process has exited.
func (p *ProcessRuntime) Subscriptions(ctx context.Context, id string) (alive bool, err kv.Error) {
	j, err := p.lookup(id)
	if err != nil {
		return false, err
	}
	if j.cmd.ProcessState != nil {
		return !j.cmd.ProcessState.Exited(), nil
	}
	if errGo := j.cmd.Process.Signal(syscall.Signal(0)); errGo != nil {
		return false, nil
	}
	return true, nil
}
