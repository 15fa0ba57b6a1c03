// Copyright (c) 2025 BVK Chaitanya

package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/bvk/ladderbot/api"
	"github.com/shirou/gopsutil/v4/process"
	"github.com/visvasity/cli"
)

func (s *Server) doServerStatus(ctx context.Context, req *api.ServerStatusRequest) (*api.ServerStatusResponse, error) {
	resp := &api.ServerStatusResponse{
		Pid:           os.Getpid(),
		StartTime:     s.startTime,
		Uptime:        time.Since(s.startTime),
		NumGoroutines: runtime.NumGoroutine(),
	}
	for _, e := range s.engines() {
		resp.NumPairs++
		if e.IsRunning() {
			resp.NumRunning++
		}
	}

	proc, err := process.NewProcessWithContext(ctx, int32(resp.Pid))
	if err != nil {
		slog.Warn("could not inspect the server process (ignored)", "err", err)
		return resp, nil
	}
	if mem, err := proc.MemoryInfoWithContext(ctx); err == nil {
		resp.RSSBytes = mem.RSS
	}
	if pct, err := proc.CPUPercentWithContext(ctx); err == nil {
		resp.CPUPercent = pct
	}
	return resp, nil
}

func (s *Server) statusTelegramCmd(ctx context.Context, args []string) error {
	stdout := cli.Stdout(ctx)

	var sb strings.Builder
	for _, e := range s.engines() {
		if len(args) != 0 && !strings.EqualFold(args[0], e.Pair()) {
			continue
		}
		status := e.Status()
		state := "stopped"
		if status.IsRunning {
			state = "running"
		}
		fmt.Fprintf(&sb, "%s: %s %s orders=%d cycles=%d failed=%d\n", status.Pair, status.Config.Mode, state,
			len(status.TrackedOrders), status.CycleCount, status.FailedCycles)
	}
	if sb.Len() == 0 {
		sb.WriteString("no pairs")
	}
	fmt.Fprint(stdout, sb.String())
	return nil
}
