package cmd

import (
	"github.com/philipparndt/arview/internal/app"
	"github.com/philipparndt/arview/internal/platform/metrics"
	"github.com/philipparndt/arview/pkg/platform"
	"github.com/spf13/cobra"
)

var (
	viewAndroid bool
	viewIOS     bool
	viewXR      bool
	viewWatch   bool
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Open the desktop preview with a simulated AR device",
	Long: `View opens a window with the orbit preview of the configured model.
Enter starts a simulated AR session whose hit test follows the mouse.`,
	Args: cobra.NoArgs,
	RunE: runView,
}

func init() {
	viewCmd.Flags().BoolVar(&viewAndroid, "android", true, "pretend to be an Android device")
	viewCmd.Flags().BoolVar(&viewIOS, "ios", false, "pretend to be an iOS device")
	viewCmd.Flags().BoolVar(&viewXR, "xr", true, "simulate immersive-ar support")
	viewCmd.Flags().BoolVarP(&viewWatch, "watch", "w", false, "reload the model when its file changes")
	rootCmd.AddCommand(viewCmd)
}

func runView(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)
	if cmd.Flags().Changed("watch") {
		cfg.Watch = viewWatch
	}

	return app.Run(cmd.Context(), app.Options{
		Config:      cfg,
		Device:      platform.Info{Android: viewAndroid && !viewIOS, IOS: viewIOS},
		XRSupported: viewXR,
		Logger:      newLogger(cfg),
		Observer:    metrics.New(),
	})
}
