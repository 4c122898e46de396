package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/component-runtime/bridge"
	"github.com/wippyai/component-runtime/compiler"
	"github.com/wippyai/component-runtime/config"
	"github.com/wippyai/component-runtime/engine"
	"github.com/wippyai/component-runtime/mount"
	"github.com/wippyai/component-runtime/mount/socketio"
	"github.com/wippyai/component-runtime/runtime"
	"github.com/wippyai/component-runtime/source"
	"github.com/wippyai/component-runtime/storage"
	"github.com/wippyai/component-runtime/wallet"
)

// app is everything a render needs, wired from config.
type app struct {
	bridge  *bridge.Bridge
	memory  *mount.Memory
	remote  *socketio.Surface
	store   *storage.Store
	closers []func() error
}

func newCompiler(c *config.Config) *compiler.Compiler {
	return compiler.New(source.NewDirFetcher(c.Sources.Dir, c.Sources.Extensions))
}

// loadPackages registers every <name>.js in dir under name.
func loadPackages(dir string) (*engine.ImportTable, error) {
	table := engine.NewImportTable()
	if dir == "" {
		return table, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read packages: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".js" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read package %s: %w", e.Name(), err)
		}
		if err := table.Register(strings.TrimSuffix(e.Name(), ".js"), string(data)); err != nil {
			return nil, err
		}
	}
	return table, nil
}

func newHosts(a *app, c *config.Config) (*runtime.HostRegistry, error) {
	hosts := runtime.NewHostRegistry()

	if c.Storage.Path != "" {
		st, err := storage.OpenStore(c.Storage.Path, logger.Named("storage"))
		if err != nil {
			return nil, err
		}
		a.store = st
		a.closers = append(a.closers, st.Close)
		if err := hosts.RegisterHost(storage.NewHost(st)); err != nil {
			return nil, err
		}
	}

	var signer wallet.Signer
	if c.Wallet.Key != "" {
		ks, err := wallet.NewKeySigner([]byte(c.Wallet.Key))
		if err != nil {
			return nil, err
		}
		signer = ks
	}
	if err := hosts.RegisterHost(wallet.NewHost(signer)); err != nil {
		return nil, err
	}
	return hosts, nil
}

func newApp(ctx context.Context, c *config.Config) (*app, error) {
	a := &app{memory: mount.NewMemory()}
	ok := false
	defer func() {
		if !ok {
			_ = a.Close()
		}
	}()

	hosts, err := newHosts(a, c)
	if err != nil {
		return nil, err
	}
	packages, err := loadPackages(c.Sources.Packages)
	if err != nil {
		return nil, err
	}

	var surface mount.Surface = a.memory
	if c.Mount.SocketURL != "" {
		remote, err := socketio.Dial(ctx, socketio.Config{
			URL:       c.Mount.SocketURL,
			Namespace: c.Mount.Namespace,
		}, logger.Named("surface"))
		if err != nil {
			return nil, err
		}
		a.remote = remote
		a.closers = append(a.closers, remote.Close)
		surface = mount.Multi{a.memory, remote}
	}

	br, err := bridge.New(bridge.Config{
		Compiler: newCompiler(c),
		Engines:  engine.Factory(engine.Options{Imports: packages, Timeout: c.Runtime.ScriptTimeout}),
		Surface:  surface,
		Host:     hosts,
		Packages: packages,
	}, bridge.WithBoundaryOptions(runtime.WithInboxWarn(c.Runtime.InboxWarn)))
	if err != nil {
		return nil, err
	}
	a.bridge = br
	if a.remote != nil {
		a.remote.OnDOMCallback(br.DispatchDOMCallback)
	}

	logger.Debug("runtime ready",
		zap.Strings("host_methods", hosts.Methods()),
		zap.Strings("packages", packages.Names()))
	ok = true
	return a, nil
}

// settled reports whether every started boundary has shown output and no
// child is still compiling.
func (a *app) settled() bool {
	if len(a.bridge.Pending()) > 0 {
		return false
	}
	for _, id := range a.bridge.Mounted() {
		if _, ok := a.memory.Node(id); !ok && a.memory.Err(id) == nil {
			return false
		}
	}
	return true
}

// Close shuts the bridge down before the resources its boundaries use.
func (a *app) Close() error {
	var first error
	if a.bridge != nil {
		first = a.bridge.Close()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}
