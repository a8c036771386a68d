package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/philipparndt/arview/pkg/analysis"
	"github.com/philipparndt/arview/pkg/asset"
	"github.com/philipparndt/arview/pkg/platform"
	"github.com/philipparndt/arview/pkg/scene"
	"github.com/philipparndt/arview/pkg/xr/xrsim"
	"github.com/spf13/cobra"
)

var (
	probeUA       string
	probePlatform string
	probeTouch    int
	probeXR       string
	probeJSON     bool
)

var probeCmd = &cobra.Command{
	Use:   "probe <base-url>",
	Short: "Decide the AR mode for a device against a deployed viewer",
	Long: `Probe resolves the configured asset paths against base-url, checks which
variants exist, preloads the VRM or GLB model and prints the AR mode a device
with the given user agent would get.`,
	Args: cobra.ExactArgs(1),
	RunE: runProbe,
}

func init() {
	probeCmd.Flags().StringVar(&probeUA, "ua", "", "user agent of the simulated device")
	probeCmd.Flags().StringVar(&probePlatform, "platform", "", "navigator.platform of the simulated device")
	probeCmd.Flags().IntVar(&probeTouch, "touch", 0, "navigator.maxTouchPoints of the simulated device")
	probeCmd.Flags().StringVar(&probeXR, "xr", "", `immersive-ar support answer: true, false or "error" (default: no WebXR)`)
	probeCmd.Flags().BoolVar(&probeJSON, "json", false, "print the preparation as JSON")
	rootCmd.AddCommand(probeCmd)
}

func printModel(m *scene.Payload) {
	stats := analysis.Analyze(m)

	fmt.Println("Preloaded Model:")
	fmt.Printf("  Name: %s (%s)\n", m.Name, m.Format)
	fmt.Printf("  Size: %s\n", humanize.Bytes(uint64(m.Size)))
	fmt.Printf("  Meshes: %d  Nodes: %d\n", m.Meshes, m.Nodes)
	fmt.Printf("  Dimensions: %s\n", analysis.FormatVector(stats.Dimensions))
	fmt.Printf("  Footprint: %.3f square units\n", stats.Footprint)
	if stats.HasTriangles() {
		fmt.Printf("  Triangles: %d  Surface Area: %.3f\n", stats.TriangleCount, stats.SurfaceArea)
		fmt.Printf("  Edge Lengths: %.4f .. %.4f (avg %.4f)\n", stats.MinEdgeLength, stats.MaxEdgeLength, stats.AvgEdgeLength)
	}
	fmt.Println()
}

// probeChecker maps the --xr flag onto a simulated runtime
func probeChecker(answer string) (platform.SupportChecker, error) {
	switch answer {
	case "":
		return nil, nil
	case "error":
		return xrsim.New(xrsim.Options{SupportErr: errors.New("support query failed")}), nil
	}
	supported, err := strconv.ParseBool(answer)
	if err != nil {
		return nil, fmt.Errorf("invalid --xr value %q", answer)
	}
	return xrsim.New(xrsim.Options{Supported: supported}), nil
}

func runProbe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)
	log := newLogger(cfg)

	checker, err := probeChecker(probeXR)
	if err != nil {
		return err
	}

	prep := asset.Prepare(cmd.Context(), asset.Request{
		Base:     args[0],
		VRMPath:  cfg.VRMPath,
		GLBPath:  cfg.GLBPath,
		USDZPath: cfg.USDZPath,
		Device:   platform.Detect(probeUA, probePlatform, probeTouch),
		Checker:  checker,
		OnLog:    func(s string) { log.Debug(s) },
	}, asset.NewProber(nil), asset.NewLoader(nil))

	if probeJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(prep)
	}

	fmt.Println("AR Mode Decision")
	fmt.Println("================")
	fmt.Printf("Mode: %s\n", prep.Mode)
	fmt.Printf("Reason: %s\n\n", prep.Reason)

	fmt.Println("Assets:")
	fmt.Printf("  VRM:  %s\n", prep.Resolved.VRM)
	fmt.Printf("  GLB:  %s\n", prep.Resolved.GLB)
	fmt.Printf("  USDZ: %s\n\n", prep.Resolved.USDZ)

	if m := prep.Preloaded.Model(); m != nil {
		printModel(m)
	}

	if len(prep.Logs) > 0 {
		fmt.Println("Log:")
		for _, l := range prep.Logs {
			fmt.Printf("  %s\n", l)
		}
	}
	if !prep.Success() {
		fmt.Println("Errors:")
		for _, e := range prep.Errors {
			fmt.Printf("  %s\n", e)
		}
		return fmt.Errorf("preparation finished with %d errors", len(prep.Errors))
	}
	return nil
}
