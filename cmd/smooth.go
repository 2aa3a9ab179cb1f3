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
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/xtalmesh/InputParameters"
	"github.com/notargets/xtalmesh/pipeline"
)

// SmoothCmd represents the smooth command
var SmoothCmd = &cobra.Command{
	Use:   "smooth <laplacian_iters> <lambda>",
	Short: "Smooth the labelled boundary mesh and write one surface per grain",
	Long: `
Reads nodes.txt, triangles.txt, nodetype.txt and facelabels.txt, smooths the
exterior triple lines, the interior triple lines and then the grain boundaries
with laplacian_iters iterations of step lambda each, and writes GrainSTLs/ and
Whole.stl.

Example parameters file (-I):
########################################
Stages: [ext_triple, int_triple, bound]
Codes:
  ExtTriple: {13: 1, 14: 2}
  IntTriple: {3: 1, 4: 2}
  Pinned: [2, 12]
########################################`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		iterations, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("laplacian_iters: %w", err)
		}
		lambda, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("lambda: %w", err)
		}
		ip := InputParameters.SmootherDefaults()
		if err = readParameters(ip); err != nil {
			return err
		}
		sp := pipeline.NewSmoother(ip, iterations, lambda, viper.GetString("dir"), logger)
		sp.Workers = viper.GetInt("workers")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		start := time.Now()
		labels, err := sp.Run(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Wrote %d grain surfaces\n", len(labels))
		fmt.Printf("FINISHED - Total processing time: %v\n", time.Since(start))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(SmoothCmd)
}
