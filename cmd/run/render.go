package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/wippyai/component-runtime/component"
	"github.com/wippyai/component-runtime/config"
	"github.com/wippyai/component-runtime/mount"
)

func newRenderCmd(loader *config.Loader) *cobra.Command {
	var (
		propsFlag       string
		trustFlag       string
		waitFlag        time.Duration
		interactiveFlag bool
	)
	cmd := &cobra.Command{
		Use:   "render <author/Name>",
		Short: "Mount a component and print the composed tree",
		Long: `Mount a component with the bridge, wait until every child boundary has
rendered or failed, and print the composed markup. With -i the tree stays
live in a terminal view where callbacks can be fired.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := component.ParsePath(args[0])
			if err != nil {
				return err
			}
			trust, err := component.ParseTrustMode(trustFlag)
			if err != nil {
				return err
			}
			var props map[string]any
			if propsFlag != "" {
				if err := json.Unmarshal([]byte(propsFlag), &props); err != nil {
					return fmt.Errorf("--props: %w", err)
				}
			}
			if interactiveFlag && !term.IsTerminal(int(os.Stdout.Fd())) {
				return fmt.Errorf("interactive mode needs a terminal")
			}
			return runRender(cmd, path, props, trust, waitFlag, interactiveFlag)
		},
	}
	f := cmd.Flags()
	f.StringVar(&propsFlag, "props", "", "Root props as a JSON object")
	f.StringVar(&trustFlag, "trust", "", "Root trust mode: sandboxed, trusted, trusted-author")
	f.DurationVar(&waitFlag, "wait", 5*time.Second, "How long to wait for child boundaries")
	f.BoolVarP(&interactiveFlag, "interactive", "i", false, "Interactive mode with TUI")
	f.String("socket", "", "socket.io URL of a remote surface (env: COMPONENT_RUNTIME_MOUNT_SOCKET_URL)")
	if err := loader.BindFlag("mount.socket_url", f.Lookup("socket")); err != nil {
		panic(err)
	}
	return cmd
}

func runRender(cmd *cobra.Command, path component.Path, props map[string]any, trust component.TrustMode, wait time.Duration, interactive bool) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	root := component.NewRootID(path)
	if err := a.bridge.Mount(ctx, root, props, trust); err != nil {
		return err
	}
	if interactive {
		return runInteractive(a, root.String())
	}

	waitCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	if err := a.memory.Wait(waitCtx, func(*mount.Memory) bool { return a.settled() }); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "still pending after %s: %v\n", wait, a.bridge.Pending())
	}

	tree, ok := a.memory.Tree(root.String())
	if !ok {
		return fmt.Errorf("%s rendered nothing", root)
	}
	fmt.Fprintln(cmd.OutOrStdout(), mount.Markup(tree))
	return nil
}
