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

// MeshCmd represents the mesh command
var MeshCmd = &cobra.Command{
	Use:   "mesh <edge_length> <epsilon>",
	Short: "Volume mesh the grain surfaces into labelled quadratic tets",
	Long: `
Remeshes Whole.stl with fTetWild, labels every element with the grain surface
in GrainSTLs/ enclosing its centroid, removes the void, converts to 10-node
tets and writes XtalMesh.inp and XtalMesh.vtk.

Both arguments are relative to the domain: edge_length is the target edge
length and epsilon the envelope, also used for the boundary node sets.

Example parameters file (-I):
########################################
Title: "Two grains"
Order: ascending # or descending, given
Threshold: 0.01
L2Q: ./tet_mesh_l2q # in process conversion when omitted
WaitTimeout: 3600
########################################`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		edgeLength, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("edge_length: %w", err)
		}
		epsilon, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("epsilon: %w", err)
		}
		ip := InputParameters.MesherDefaults()
		if err = readParameters(ip); err != nil {
			return err
		}
		m := pipeline.NewMesher(ip, edgeLength, epsilon, viper.GetString("dir"), logger)
		m.Workers = viper.GetInt("workers")
		m.KeepScratch, _ = cmd.Flags().GetBool("keep-scratch")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		start := time.Now()
		res, err := m.Run(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Wrote %s and %s: %d elements, %d nodes, %d grains\n",
			res.AbaqusFile, res.VTKFile, res.Elements, res.Nodes, res.Grains)
		fmt.Printf("FINISHED - Total processing time: %v\n", time.Since(start))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(MeshCmd)
	MeshCmd.Flags().Bool("keep-scratch", false, "keep the scratch directory of intermediate files")
}
