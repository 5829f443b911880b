// Command tpc compiles a Pascal-subset source file into an ARM64 Darwin
// executable: expand includes, compile to assembly, and (unless -S is
// given) shell out to the system toolchain to assemble and link it.
package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tuxpascal/tpc/compiler"
	"github.com/tuxpascal/tpc/config"
	"github.com/tuxpascal/tpc/inspect"
	"github.com/tuxpascal/tpc/lint"
	"github.com/tuxpascal/tpc/preprocess"
	"github.com/tuxpascal/tpc/xref"
)

var command = &cobra.Command{
	Use:           "tpc <input.pas>",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runCompile,
}

func init() {
	command.Flags().StringP("output", "o", "a.out", "output path (executable, or assembly with -S)")
	command.Flags().BoolP("assembly-only", "S", false, "write assembly to the output path and stop")
	command.Flags().String("config", "", "path to a .tpcrc.toml configuration file")
	command.Flags().Bool("xref", false, "print a symbol cross-reference after compiling")
	command.Flags().Bool("lint", false, "print static-analysis findings after compiling")
	command.Flags().Bool("inspect", false, "launch the assembly inspector instead of assembling")
}

func main() {
	if err := command.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCompile(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	output, _ := cmd.Flags().GetString("output")
	assemblyOnly, _ := cmd.Flags().GetBool("assembly-only")
	configPath, _ := cmd.Flags().GetString("config")
	wantXref, _ := cmd.Flags().GetBool("xref")
	wantLint, _ := cmd.Flags().GetBool("lint")
	wantInspect, _ := cmd.Flags().GetBool("inspect")

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return reportf("%v", err)
	}

	source, err := os.ReadFile(inputPath) // #nosec G304 -- user-supplied source path
	if err != nil {
		return reportf("%s: %v", inputPath, err)
	}

	pp := preprocess.NewPreprocessor(filepath.Dir(inputPath))
	expanded, err := pp.Expand(string(source), inputPath)
	if err != nil {
		return reportf("%v", err)
	}

	c := compiler.New(expanded, inputPath)
	asm, err := c.Compile()
	if err != nil {
		return reportf("%v", err)
	}

	if wantLint {
		for _, issue := range lint.Lint(c.GlobalScope(), nil) {
			fmt.Println(issue)
		}
	}
	if wantXref {
		fmt.Print(xref.Report(c.GlobalScope()))
	}

	if wantInspect {
		return inspect.Run(c, asm)
	}

	if assemblyOnly {
		if err := os.WriteFile(output, []byte(asm), 0644); err != nil {
			return reportf("%s: %v", output, err)
		}
		return nil
	}

	asmPath := filepath.Join(os.TempDir(), "tpc_"+strconv.Itoa(os.Getpid())+".s")
	if err := os.WriteFile(asmPath, []byte(asm), 0644); err != nil {
		return reportf("%s: %v", asmPath, err)
	}
	defer os.Remove(asmPath)

	assembleArgs := append(append([]string{}, cfg.Toolchain.ExtraFlags...), asmPath, "-o", output)
	toolchain := exec.Command(cfg.Toolchain.Assembler, assembleArgs...) // #nosec G204 -- assembler path comes from trusted config
	toolchain.Stdout = os.Stdout
	toolchain.Stderr = os.Stderr
	if err := toolchain.Run(); err != nil {
		return reportf("assemble/link failed: %v", err)
	}

	return nil
}

func reportf(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, msg)
	return errors.New(msg)
}
