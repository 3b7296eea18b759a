package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gekko3d/ragdoll"
	"github.com/gekko3d/ragdoll/config"
)

var Version = "dev"

type app struct {
	cfgFile string
	v       *viper.Viper
	cfg     *config.Config
	log     *ragdoll.DefaultLogger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	root := &cobra.Command{
		Use:           "ragdoll",
		Short:         "Active ragdoll simulation and streaming server",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.v.BindPFlag("log.debug", cmd.Root().PersistentFlags().Lookup("debug")); err != nil {
				return err
			}
			cfg, err := config.Load(a.v, a.cfgFile)
			if err != nil {
				return err
			}
			a.cfg = cfg
			log, err := ragdoll.NewLogger(cfg.Log)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			a.log = log
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.log != nil {
				return a.log.Close()
			}
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (YAML)")
	root.PersistentFlags().Bool("debug", false, "enable debug logging")
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	root.AddCommand(newServeCmd(a), newSimulateCmd(a), newTuningCmd(a), newVersionCmd())
	return root
}

// tuning loads the configured overlay, or the defaults when none is set.
func (a *app) tuning() (ragdoll.Tuning, error) {
	if a.cfg.TuningFile == "" {
		return ragdoll.DefaultTuning(), nil
	}
	return ragdoll.LoadTuning(a.cfg.TuningFile)
}
