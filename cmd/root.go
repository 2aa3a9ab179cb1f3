/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io/ioutil"
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile  string
	logger   = zap.NewNop()
	profiler interface{ Stop() }
)

var rootCmd = &cobra.Command{
	Use:   "xtalmesh",
	Short: "Polycrystal finite element mesh preparation",
	Long: `
Smooths the labelled boundary mesh of a polycrystal into closed grain surfaces,
then fills the domain with quadratic tets labelled by grain, with element sets
per grain and node sets on the six domain faces.

xtalmesh smooth <laplacian_iters> <lambda>
xtalmesh mesh <edge_length> <epsilon>`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) (err error) {
		if logger, err = newLogger(viper.GetString("log-level")); err != nil {
			return err
		}
		switch p := viper.GetString("profile"); p {
		case "":
		case "cpu":
			profiler = profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
		case "mem":
			profiler = profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.NoShutdownHook)
		default:
			return fmt.Errorf("unknown profile %q, expected cpu or mem", p)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if profiler != nil {
			profiler.Stop()
			profiler = nil
		}
		_ = logger.Sync()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.xtalmesh.yaml)")
	pf.StringP("params", "I", "", "YAML file of run parameters, see the mesh and smooth help")
	pf.StringP("dir", "C", ".", "working directory input and output paths are relative to")
	pf.IntP("workers", "w", 0, "concurrent workers, 0 uses every CPU")
	pf.String("log-level", "info", "log level: debug, info, warn or error")
	pf.String("profile", "", "write a cpu or mem profile of the run")
	for _, name := range []string{"params", "dir", "workers", "log-level", "profile"} {
		if err := viper.BindPFlag(name, pf.Lookup(name)); err != nil {
			panic(err)
		}
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".xtalmesh")
	}
	viper.SetEnvPrefix("XTALMESH")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	config := zap.NewProductionConfig()
	config.Level = lvl
	config.Encoding = "console"
	config.DisableStacktrace = true
	return config.Build()
}

type parameters interface {
	Parse(data []byte) error
	Print()
}

// readParameters overlays the YAML file named by --params, if any, on ip
func readParameters(ip parameters) error {
	if fileName := viper.GetString("params"); len(fileName) != 0 {
		data, err := ioutil.ReadFile(fileName)
		if err != nil {
			return err
		}
		if err = ip.Parse(data); err != nil {
			return fmt.Errorf("%s: %w", fileName, err)
		}
	}
	ip.Print()
	return nil
}
