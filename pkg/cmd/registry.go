// Package cmd provides common initialization for the command-line entry
// points: the source registry and the capability provider selection.
package cmd

import (
	"log/slog"

	"github.com/notabot/notabot/pkg/registry"
	"github.com/notabot/notabot/pkg/sources/directory"
	"github.com/notabot/notabot/pkg/sources/file"
	"github.com/notabot/notabot/pkg/sources/kafka"
	"github.com/notabot/notabot/pkg/sources/redis"
	"github.com/notabot/notabot/pkg/sources/schedule"
	"github.com/notabot/notabot/pkg/sources/stdin"
	"github.com/notabot/notabot/pkg/sources/tcp"
	"github.com/notabot/notabot/pkg/sources/webhook"
)

func registerNativeSources(reg *registry.Registry) {
	reg.RegisterSource(file.NewFactory())
	reg.RegisterSource(directory.NewFactory())
	reg.RegisterSource(tcp.NewFactory())
	reg.RegisterSource(stdin.NewFactory())
	reg.RegisterSource(schedule.NewFactory())
	reg.RegisterSource(webhook.NewFactory())
	reg.RegisterSource(kafka.NewFactory())
	reg.RegisterSource(redis.NewFactory())
}

// NewRegistry builds the source registry with every built-in source type
// registered.
func NewRegistry(log *slog.Logger) *registry.Registry {
	reg := registry.NewRegistry(log)

	registerNativeSources(reg)

	return reg
}
