package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/carve/pkg/app"
	"github.com/chazu/carve/pkg/meshio"
	"github.com/spf13/cobra"
)

func newEvalCmd(opts *options) *cobra.Command {
	var (
		out     string
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "eval FILE",
		Short: "Evaluate a design file and export its parts",
		Long: `Evaluate a design file and write every part as binary STL.

With one part the mesh is written to OUT. With several, each part goes to
OUT-<part>.stl next to OUT. --json prints the evaluation result instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			a, err := app.New(opts.cfg)
			if err != nil {
				return err
			}

			result := a.Evaluate(string(source))
			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(result); err != nil {
					return err
				}
			}
			for _, w := range result.Warnings {
				slog.Warn(w.Message, "file", args[0], "line", w.Line)
			}
			if !result.OK() {
				for _, e := range result.Errors {
					slog.Error(e.Message, "file", args[0], "line", e.Line, "col", e.Col)
				}
				return fmt.Errorf("%s: %d error(s)", args[0], len(result.Errors))
			}

			if out == "" {
				return nil
			}
			for path, m := range partPaths(out, result.Meshes) {
				if err := meshio.WriteSTL(path, m.KernelMesh()); err != nil {
					return err
				}
				slog.Info("wrote part", "part", m.PartName, "path", path, "triangles", len(m.Indices)/3)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "STL output path")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the evaluation result as JSON")
	return cmd
}

// partPaths assigns an output path to each mesh.
func partPaths(out string, meshes []app.MeshData) map[string]app.MeshData {
	paths := make(map[string]app.MeshData, len(meshes))
	if len(meshes) == 1 {
		paths[out] = meshes[0]
		return paths
	}
	base := strings.TrimSuffix(out, filepath.Ext(out))
	for _, m := range meshes {
		paths[base+"-"+m.PartName+".stl"] = m
	}
	return paths
}
