package main

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joeydtaylor/steeze-jrtc/pkg/app"
	"github.com/joeydtaylor/steeze-jrtc/pkg/client"
	"github.com/joeydtaylor/steeze-jrtc/pkg/codec"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultIOQSize = 1000

func appCommand(general *generalOptions) *cobra.Command {
	server := &client.Options{}
	cmd := &cobra.Command{
		Use:   "app",
		Short: "Manage apps on a running server",
	}
	client.AddToFlags(cmd.PersistentFlags(), server)

	newClient := func() (*client.Client, error) {
		base, err := server.BaseURL()
		if err != nil {
			return nil, err
		}
		return client.New(base, client.WithLogger(general.logger)), nil
	}

	cmd.AddCommand(
		listCommand(newClient),
		getCommand(newClient),
		loadCommand(general, newClient),
		unloadCommand(newClient),
	)
	return cmd
}

type clientFactory func() (*client.Client, error)

func printJSON(w io.Writer, v any) error {
	b, err := codec.JSON.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func listCommand(newClient clientFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List loaded apps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			apps, err := c.List(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), apps)
		},
		SilenceUsage: true,
	}
}

func getCommand(newClient clientFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID [ID...]",
		Short: "Show loaded apps by id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int32, len(args))
			for i, a := range args {
				id, err := strconv.ParseInt(a, 10, 32)
				if err != nil {
					return fmt.Errorf("invalid app id %q", a)
				}
				ids[i] = int32(id)
			}
			c, err := newClient()
			if err != nil {
				return err
			}

			out := make([]app.State, len(ids))
			g, ctx := errgroup.WithContext(cmd.Context())
			for i, id := range ids {
				i, id := i, id
				g.Go(func() error {
					st, err := c.Get(ctx, id)
					if err != nil {
						return fmt.Errorf("app %d: %w", id, err)
					}
					out[i] = st
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
		SilenceUsage: true,
	}
}

type loadOptions struct {
	appName  string
	appPath  string
	appType  string
	ioqSize  uint32
	deadline time.Duration
	period   time.Duration
	runtime  time.Duration
	params   map[string]string
	devices  map[string]string
	modules  []string
}

func (o *loadOptions) addToFlags(flags *pflag.FlagSet) {
	flags.StringVar(&o.appName, "app-name", "", "app name inside the runtime")
	flags.StringVar(&o.appPath, "app-path", "", "shared library of the app; its bytes are the payload")
	flags.StringVar(&o.appType, "app-type", "", "the type of the app")
	flags.Uint32Var(&o.ioqSize, "ioq-size", defaultIOQSize, "router queue size for data shipped to the app")
	flags.DurationVar(&o.deadline, "deadline", 0, "scheduling deadline; 0 disables deadline scheduling")
	flags.DurationVar(&o.period, "period", 0, "scheduling period")
	flags.DurationVar(&o.runtime, "runtime", 0, "runtime quota per period")
	flags.StringToStringVar(&o.params, "param", nil, "app parameter key=value (repeatable)")
	flags.StringToStringVar(&o.devices, "device", nil, "device mapping key=value (repeatable)")
	flags.StringSliceVar(&o.modules, "module", nil, "app module (repeatable)")
}

func micros(name string, d time.Duration) (uint32, error) {
	us := d.Microseconds()
	if us < 0 || us > math.MaxUint32 {
		return 0, fmt.Errorf("--%s %s out of range", name, d)
	}
	return uint32(us), nil
}

func (o *loadOptions) request() (*app.LoadRequest, error) {
	if o.appName == "" {
		return nil, errors.New("--app-name is required")
	}
	if o.appPath == "" {
		return nil, errors.New("--app-path is required")
	}
	payload, err := os.ReadFile(o.appPath)
	if err != nil {
		return nil, err
	}

	req := &app.LoadRequest{
		App:           payload,
		AppName:       o.appName,
		IoqSize:       o.ioqSize,
		AppPath:       o.appPath,
		AppType:       o.appType,
		AppParams:     o.params,
		DeviceMapping: o.devices,
		AppModules:    o.modules,
	}
	var errs [3]error
	req.DeadlineUs, errs[0] = micros("deadline", o.deadline)
	req.PeriodUs, errs[1] = micros("period", o.period)
	req.RuntimeUs, errs[2] = micros("runtime", o.runtime)
	if err := errors.Join(errs[:]...); err != nil {
		return nil, err
	}
	return req, nil
}

func loadCommand(general *generalOptions, newClient clientFactory) *cobra.Command {
	opts := &loadOptions{}
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load an app",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := opts.request()
			if err != nil {
				return err
			}
			c, err := newClient()
			if err != nil {
				return err
			}
			st, err := c.Load(cmd.Context(), req)
			if err != nil {
				return err
			}
			general.logger.Info("loaded app", zap.Int32("id", st.ID), zap.String("start_time", st.StartTime))
			return printJSON(cmd.OutOrStdout(), st)
		},
		SilenceUsage: true,
	}
	opts.addToFlags(cmd.Flags())
	return cmd
}

func unloadCommand(newClient clientFactory) *cobra.Command {
	var (
		name string
		ids  []int32
	)
	cmd := &cobra.Command{
		Use:   "unload",
		Short: "Unload apps by id or by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (name == "") == (len(ids) == 0) {
				return errors.New("exactly one of --app-name or --id is required")
			}
			c, err := newClient()
			if err != nil {
				return err
			}
			if name != "" {
				_, found, err := c.UnloadByName(cmd.Context(), name)
				if err != nil {
					return err
				}
				if !found {
					return fmt.Errorf("app %q not found", name)
				}
				return nil
			}

			var mu sync.Mutex
			var missing []int32
			g, ctx := errgroup.WithContext(cmd.Context())
			for _, id := range ids {
				id := id
				g.Go(func() error {
					err := c.Unload(ctx, id)
					if client.IsNotFound(err) {
						mu.Lock()
						missing = append(missing, id)
						mu.Unlock()
						return nil
					}
					return err
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
			if len(missing) > 0 {
				return fmt.Errorf("apps not found: %v", missing)
			}
			return nil
		},
		SilenceUsage: true,
	}
	cmd.Flags().StringVar(&name, "app-name", "", "unload the app loaded under this name")
	cmd.Flags().Int32SliceVar(&ids, "id", nil, "unload these ids (repeatable)")
	return cmd
}
