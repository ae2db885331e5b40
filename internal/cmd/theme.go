package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/sidecar/internal/tui/styles"
)

var themeCmd = &cobra.Command{
	Use:   "theme",
	Short: "Manage color themes",
	Long: `Manage color themes for the sidecar panel.

Sidecar supports both built-in themes and custom user-defined themes.
Custom themes are stored in ~/.config/sidecar/themes/ as YAML files.

Use 'theme list' to see all available themes.
Use 'theme export' to create a template for custom themes.`,
}

var themeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all available themes",
	RunE:  runThemeList,
}

var themeExportCmd = &cobra.Command{
	Use:   "export <theme-name> [output-file]",
	Short: "Export a theme to YAML",
	Long: `Export a theme to YAML format for customization or sharing.

If no output file is specified, the YAML is printed to stdout.
This is useful for creating a starting point for custom themes.

Examples:
  sidecar config theme export default                # Print default theme to stdout
  sidecar config theme export dracula my-theme.yaml  # Save dracula theme to file`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runThemeExport,
}

var themePathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the custom themes directory path",
	RunE:  runThemePath,
}

var themeCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new custom theme from the default template",
	Long: `Create a new custom theme file in your themes directory.

This creates a new YAML file based on the default theme that you can
customize. The theme is available the next time sidecar starts.

Example:
  sidecar config theme create solarized
  # Creates ~/.config/sidecar/themes/solarized.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runThemeCreate,
}

func init() {
	themeCmd.AddCommand(themeListCmd)
	themeCmd.AddCommand(themeExportCmd)
	themeCmd.AddCommand(themePathCmd)
	themeCmd.AddCommand(themeCreateCmd)
	configCmd.AddCommand(themeCmd)
}

func runThemeList(cmd *cobra.Command, args []string) error {
	// Discover custom themes and report any load errors
	_, loadErrs := styles.DiscoverCustomThemes()
	if len(loadErrs) > 0 {
		fmt.Fprintln(os.Stderr, "Warning: Some themes failed to load:")
		for _, err := range loadErrs {
			fmt.Fprintf(os.Stderr, "  - %v\n", err)
		}
		fmt.Fprintln(os.Stderr)
	}

	fmt.Println("Built-in themes:")
	for _, name := range styles.BuiltinThemes() {
		fmt.Printf("  - %s\n", name)
	}

	customNames := styles.CustomThemeNames()
	if len(customNames) > 0 {
		fmt.Println()
		fmt.Println("Custom themes:")
		sort.Strings(customNames)
		for _, name := range customNames {
			theme := styles.GetCustomTheme(styles.ThemeName(name))
			if theme != nil && theme.Author != "" {
				fmt.Printf("  - %s (by %s)\n", name, theme.Author)
			} else {
				fmt.Printf("  - %s\n", name)
			}
		}
	}

	fmt.Println()
	fmt.Printf("Custom themes directory: %s\n", styles.ThemesDir())

	return nil
}

func runThemeExport(cmd *cobra.Command, args []string) error {
	themeName := args[0]

	// Discover custom themes first
	_, _ = styles.DiscoverCustomThemes()

	if !styles.IsValidTheme(themeName) {
		return fmt.Errorf("unknown theme: %s\nRun 'sidecar config theme list' to see available themes", themeName)
	}

	data, err := styles.ExportTheme(styles.ThemeName(themeName))
	if err != nil {
		return fmt.Errorf("exporting theme: %w", err)
	}

	if len(args) > 1 {
		outputPath := args[1]
		if err := os.WriteFile(outputPath, data, 0o644); err != nil {
			return fmt.Errorf("writing to %s: %w", outputPath, err)
		}
		fmt.Printf("Theme exported to: %s\n", outputPath)
		return nil
	}

	fmt.Println(string(data))
	return nil
}

func runThemePath(cmd *cobra.Command, args []string) error {
	themesDir := styles.ThemesDir()
	fmt.Println(themesDir)

	if _, err := os.Stat(themesDir); os.IsNotExist(err) {
		fmt.Println()
		fmt.Println("Note: This directory does not exist yet.")
		fmt.Println("It will be created when you add your first custom theme.")
	}

	return nil
}

func runThemeCreate(cmd *cobra.Command, args []string) error {
	name := args[0]

	if name == "" {
		return fmt.Errorf("theme name cannot be empty")
	}
	if strings.ContainsAny(name, "/\\:*?\"<>|") {
		return fmt.Errorf("theme name contains invalid characters")
	}
	if styles.IsBuiltinTheme(name) {
		return fmt.Errorf("cannot create custom theme with built-in name '%s'", name)
	}

	themePath := filepath.Join(styles.ThemesDir(), name+".yaml")
	if _, err := os.Stat(themePath); err == nil {
		return fmt.Errorf("theme '%s' already exists at %s", name, themePath)
	}

	theme := &styles.ThemeFile{
		Name:        capitalizeFirst(name),
		Description: "A custom sidecar theme",
		Version:     "1",
		Colors: styles.ThemeColors{
			Primary:   "#A78BFA",
			Secondary: "#10B981",
			Warning:   "#F59E0B",
			Error:     "#F87171",
			Muted:     "#9CA3AF",
			Surface:   "#1F2937",
			Text:      "#F9FAFB",
			Border:    "#6B7280",
		},
	}

	if err := styles.SaveTheme(name, theme); err != nil {
		return fmt.Errorf("creating theme: %w", err)
	}

	fmt.Printf("Created new theme: %s\n", themePath)
	fmt.Println()
	fmt.Println("Edit this file to customize your theme colors.")
	fmt.Printf("To use it, run:\n  sidecar config set tui.theme %s\n", name)

	return nil
}

// capitalizeFirst capitalizes the first character of a string.
func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
