package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sarchlab/heartbeat/app"
	"github.com/sarchlab/heartbeat/prefs"
)

const (
	typeString = "string"
	typeInt    = "int"
	typeFloat  = "float"
	typeBool   = "bool"
)

func newPrefsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Read and write preferences in the configured backend.",
	}

	get := &cobra.Command{
		Use:   "get KEY",
		Short: "Print the value of a preference.",
		Args:  cobra.ExactArgs(1),
		RunE: withPrefs(func(cmd *cobra.Command, p *prefs.Prefs, args []string) error {
			key := args[0]
			if !p.HasKey(key) {
				return fmt.Errorf("preference %q is not set", key)
			}

			t, _ := cmd.Flags().GetString("type")

			var value any

			switch t {
			case typeInt:
				value = p.GetInt(key, 0)
			case typeFloat:
				value = p.GetFloat(key, 0)
			case typeBool:
				value = p.GetBool(key, false)
			default:
				value = p.GetString(key, "")
			}

			fmt.Fprintln(cmd.OutOrStdout(), value)

			return nil
		}),
	}
	get.Flags().String("type", typeString, "value type: string, int, float or bool")

	set := &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a preference and save it.",
		Args:  cobra.ExactArgs(2),
		RunE: withPrefs(func(cmd *cobra.Command, p *prefs.Prefs, args []string) error {
			t, _ := cmd.Flags().GetString("type")
			if err := setTyped(p, t, args[0], args[1]); err != nil {
				return err
			}

			return p.Save()
		}),
	}
	set.Flags().String("type", typeString, "value type: string, int, float or bool")

	del := &cobra.Command{
		Use:   "delete KEY",
		Short: "Delete a preference.",
		Args:  cobra.ExactArgs(1),
		RunE: withPrefs(func(_ *cobra.Command, p *prefs.Prefs, args []string) error {
			if err := p.Delete(args[0]); err != nil {
				return err
			}

			return p.Save()
		}),
	}

	clearAll := &cobra.Command{
		Use:   "clear",
		Short: "Delete every preference.",
		Args:  cobra.NoArgs,
		RunE: withPrefs(func(_ *cobra.Command, p *prefs.Prefs, _ []string) error {
			if err := p.DeleteAll(); err != nil {
				return err
			}

			return p.Save()
		}),
	}

	cmd.AddCommand(get, set, del, clearAll)

	return cmd
}

func setTyped(p *prefs.Prefs, t, key, raw string) error {
	switch t {
	case typeString:
		return p.SetString(key, raw)
	case typeInt:
		v, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%q is not an integer", raw)
		}

		return p.SetInt(key, v)
	case typeFloat:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("%q is not a number", raw)
		}

		return p.SetFloat(key, v)
	case typeBool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("%q is not a boolean", raw)
		}

		return p.SetBool(key, v)
	default:
		return fmt.Errorf("unknown preference type %q", t)
	}
}

type prefsFunc func(cmd *cobra.Command, p *prefs.Prefs, args []string) error

func withPrefs(f prefsFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		backend, closer, err := app.OpenPrefsBackend(ctx, cfg)
		if err != nil {
			return err
		}

		if closer != nil {
			defer closer()
		}

		return f(cmd, prefs.New(backend, prefs.WithTimeout(cfg.PrefsTimeout)), args)
	}
}
