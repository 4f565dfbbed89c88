package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/LynnColeArt/guml"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Report the execution environment",
	Long: `Print the device the estimators run on: core count, memory, SIMD
features, the selected GEMM path, and the library version.`,
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	dev, err := guml.GetDeviceProperties(0)
	if err != nil {
		return fmt.Errorf("failed to query device: %w", err)
	}

	fmt.Println(heading("=== GUML Device Report ==="))
	fmt.Printf("Devices: %d\n", guml.GetDeviceCount())
	fmt.Printf("Device %d: %s\n", dev.ID, dev.Name)
	fmt.Printf("  Cores:       %d\n", dev.NumCores)
	fmt.Printf("  Max threads: %d\n", dev.MaxThreads)
	fmt.Printf("  Memory:      %.1f GB\n", float64(dev.TotalMem)/(1<<30))
	fmt.Printf("  GEMM path:   %s\n", guml.GetBestGemmImplementation())
	fmt.Println(guml.GetCPUInfo())
	fmt.Printf("Go: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	if version, sum := guml.Version(); version != "" {
		fmt.Printf("Library: %s %s\n", version, sum)
	}
	return nil
}
