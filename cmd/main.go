package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"strata/internal/chroot"
	"strata/internal/config"
	"strata/internal/errdefs"
	"strata/internal/installer"
	"strata/internal/logging"
	"strata/internal/prompt"
	"strata/internal/run"
	"strata/internal/structures"
)

var (
	logPath        string
	targetRoot     string
	verbose        bool
	noVerifyTarget bool
	payloadPath    string
)

var rootCmd = &cobra.Command{
	Use:   "strata",
	Short: "Strata - interactive Linux installer",
	Long: `Strata installs a Linux system through a sequence of terminal prompts,
then prepares the target disk, bootstraps the base system and configures
it inside the target root.
`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Run the interactive installation",
	Long: `Run the full installation pipeline: environment checks, interactive
configuration, disk preparation, base system bootstrap and target
configuration. Disk preparation is destructive and cannot be undone.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logging.Setup(logPath, verbose)

		service := installer.New(prompt.NewTerminal(), run.NewExecRunner(), installer.Options{
			TargetRoot:   targetRoot,
			VerifyTarget: !noVerifyTarget,
		})
		return service.Run(cmd.Context())
	},
}

// applyCmd runs only inside the changed-root context, against the payload
// the install command materializes in the target.
var applyCmd = &cobra.Command{
	Use:    "apply",
	Hidden: true,
	Short:  "Apply a configuration payload to the current root",
	Args:   cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logging.Setup(logPath, verbose)

		var payload structures.Payload
		if err := config.LoadConfig(payloadPath, &payload); err != nil {
			return errdefs.Wrap(err, errdefs.KindConfigure, "error loading configuration payload")
		}

		applier := chroot.NewApplier(run.NewExecRunner())
		if err := applier.Apply(cmd.Context(), &payload); err != nil {
			return errdefs.Wrap(err, errdefs.KindConfigure, "target configuration failed")
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of Strata",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Strata v0.1.0")
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&logPath, "log-file", logging.DefaultLogFile, "Path to the installation log file")

	installCmd.Flags().StringVar(&targetRoot, "target-root", "/mnt/strata", "Mount point for the system under construction")
	installCmd.Flags().BoolVar(&noVerifyTarget, "no-verify-target", false, "Skip verifying the target root is mounted after manual partitioning")

	applyCmd.Flags().StringVar(&payloadPath, "payload", "", "Path to the configuration payload")
	applyCmd.MarkFlagRequired("payload")

	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(versionCmd)

	installCmd.SilenceUsage = true
	installCmd.SilenceErrors = true
	applyCmd.SilenceUsage = true
	applyCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(errdefs.ExitCode(err))
	}
}
