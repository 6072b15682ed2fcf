package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/katalvlaran/lvlarc/config"
)

// app carries the viper instance built once the --config flag is known.
type app struct {
	cfgFile string
	v       *viper.Viper
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "lvlarc",
		Short:         "Multiple-shooting corrector for arcsets",
		Long:          "lvlarc reads an arcset with its constraints from a YAML problem file, corrects it against a reference model and writes the result.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (YAML)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text or json")
	pf.String("model", "", "reference model: drift or two-body")

	root.AddCommand(newCorrectCmd(a), newInspectCmd())

	return root
}

// initConfig loads the config file and environment, then lets explicitly set
// flags take precedence.
func (a *app) initConfig(cmd *cobra.Command) error {
	v, err := config.New(a.cfgFile)
	if err != nil {
		return err
	}
	binds := map[string]string{
		"log.level":        "log-level",
		"log.format":       "log-format",
		"model.name":       "model",
		"tolerance":        "tolerance",
		"max_iterations":   "max-iterations",
		"tof_mode":         "tof-mode",
		"allow_divergence": "allow-divergence",
		"parallelism":      "parallelism",
	}
	for key, name := range binds {
		f := cmd.Flags().Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		if err = v.BindPFlag(key, f); err != nil {
			return err
		}
	}
	a.v = v

	return nil
}

func (a *app) settings() (config.Settings, error) {
	return config.Load(a.v)
}
