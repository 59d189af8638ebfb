package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-narrator/pkg/camera"
)

var (
	camerasMax   int
	probeCameras = camera.Probe
)

var camerasCmd = &cobra.Command{
	Use:   "cameras",
	Short: "List capture devices that open",
	RunE: func(cmd *cobra.Command, args []string) error {
		found := probeCameras(camerasMax)
		if len(found) == 0 {
			return fmt.Errorf("no cameras found in devices 0-%d", camerasMax-1)
		}
		for _, d := range found {
			state := "ok"
			if !d.Works {
				state = "no frames"
			}
			fmt.Printf("camera %d: %dx%d @ %.0f fps (%s)\n", d.ID, d.Width, d.Height, d.FPS, state)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(camerasCmd)
	camerasCmd.Flags().IntVar(&camerasMax, "max", 5, "Highest device index to try, exclusive")
}
