package main

import (
	"fmt"
	"log/slog"

	"github.com/chazu/carve/pkg/kernel"
	"github.com/chazu/carve/pkg/kernel/bsp"
	"github.com/chazu/carve/pkg/meshio"
	"github.com/spf13/cobra"
)

func newBooleanCmd(op string) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   op + " A.stl B.stl [C.stl ...]",
		Short: fmt.Sprintf("Write the %s of STL solids, folded left to right", op),
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBoolean(op, args, out)
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "STL output path")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func newComplementCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "complement A.stl",
		Short: "Write the complement (inside out) of an STL solid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBoolean("complement", args, out)
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "STL output path")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

// runBoolean reads the inputs as BSP solids, combines them with op and
// writes the result to out.
func runBoolean(op string, inputs []string, out string) error {
	k := bsp.New()
	solids := make([]kernel.Solid, 0, len(inputs))
	for _, path := range inputs {
		m, err := meshio.ReadSTLFile(path)
		if err != nil {
			return err
		}
		s, err := k.FromMesh(m)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		solids = append(solids, s)
	}

	var combine func(a, b kernel.Solid) kernel.Solid
	switch op {
	case "union":
		combine = k.Union
	case "difference":
		combine = k.Difference
	case "intersection":
		combine = k.Intersection
	case "complement":
		if len(solids) != 1 {
			return fmt.Errorf("complement takes exactly 1 input, got %d", len(solids))
		}
	default:
		return fmt.Errorf("unknown operation %q", op)
	}

	acc := solids[0]
	if combine == nil {
		acc = k.Complement(acc)
	}
	for _, s := range solids[1:] {
		acc = combine(acc, s)
	}

	m, err := k.ToMesh(acc)
	if err != nil {
		return err
	}
	if err := meshio.WriteSTL(out, m); err != nil {
		return err
	}
	slog.Info(op, "inputs", len(inputs), "path", out, "triangles", m.TriangleCount())
	return nil
}
