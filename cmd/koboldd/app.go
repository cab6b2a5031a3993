package main

import (
	"context"
	"fmt"

	"koboldd/internal/config"
	"koboldd/internal/manager"
	"koboldd/internal/registry"
	"koboldd/pkg/types"
)

// storeSettings exposes the configuration store to the manager.
type storeSettings struct{ store *config.Store }

func (s storeSettings) GenerationSettings() manager.Settings {
	c := s.store.Snapshot()
	return manager.Settings{
		BinaryPath:       c.BinaryPath,
		ModelPath:        c.ModelPath,
		Threads:          c.Threads,
		MaxLength:        c.MaxLength,
		MaxContextLength: c.MaxContextLength,
		GPULayers:        c.GPULayers,
		IgnoreEOS:        c.IgnoreEOS,
		ExtraArgs:        c.ExtraArgs,
		VerboseEcho:      c.VerboseEcho,
	}
}

// app joins the manager and the configuration store behind the HTTP API.
type app struct {
	mgr            *manager.Manager
	store          *config.Store
	softPromptsDir string
}

func (a *app) Generate(ctx context.Context, req types.GenerateRequest) (string, error) {
	return a.mgr.Generate(ctx, req)
}

func (a *app) Status() types.StatusResponse {
	st := a.mgr.Status()
	st.Model = a.store.ModelAnnounce()
	return st
}

func (a *app) Ready() bool { return a.mgr.Ready() }

func (a *app) ModelAnnounce() string           { return a.store.ModelAnnounce() }
func (a *app) MaxLength() int                  { return a.store.MaxLength() }
func (a *app) MaxContextLength() int           { return a.store.MaxContextLength() }
func (a *app) SoftPrompt() string              { return a.store.SoftPrompt() }
func (a *app) SoftPrompts() ([]string, error)  { return registry.LoadDir(a.softPromptsDir) }
func (a *app) SetMaxLength(n int) error        { return a.store.SetMaxLength(n) }
func (a *app) SetMaxContextLength(n int) error { return a.store.SetMaxContextLength(n) }

// SetSoftPrompt accepts "" (none) or a soft prompt present in the directory.
func (a *app) SetSoftPrompt(name string) error {
	if name != "" {
		ok, err := registry.Contains(a.softPromptsDir, name)
		if err != nil {
			return fmt.Errorf("soft prompts: %w", err)
		}
		if !ok {
			return fmt.Errorf("unknown soft prompt %q", name)
		}
	}
	a.store.SetSoftPrompt(name)
	return nil
}
