package main

import (
	"log"
	"os"

	"github.com/ispapp/minipy/internal/settings"
	"github.com/ispapp/minipy/internal/ui"
	"github.com/ispapp/minipy/internal/ui/theme"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/urfave/cli/v2"
)

var GlobalApp fyne.App

func main() {
	cliApp := &cli.App{
		Name:      "minipy",
		Usage:     "a small Python editor with an IPython console",
		ArgsUsage: "[file.py]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "python",
				Aliases: []string{"p"},
				Usage:   "interpreter used for the `python -m IPython` fallback",
				EnvVars: []string{"MINIPY_PYTHON"},
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "settings file to use instead of the per-user one",
			},
			&cli.StringFlag{
				Name:  "cleanup-delay",
				Usage: "seconds before a scratch file of an unsaved run is removed",
			},
			&cli.StringFlag{
				Name:  "theme",
				Usage: "dark or light",
			},
		},
		Action: run,
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	if path := c.String("config"); path != "" {
		settings.SetPath(path)
	}

	// Initialize settings first
	if err := settings.Initialize(); err != nil {
		log.Printf("Failed to initialize settings: %v", err)
		// Continue with defaults
	}
	saved := settings.RefreshCurrent()
	for _, problem := range saved.Validate() {
		log.Printf("Settings: %s, using default", problem)
	}
	saved.Sanitize()

	// Flags only affect this run, the settings file keeps its own values
	cfg, err := saved.Effective(settings.Overrides{
		Python:       c.String("python"),
		CleanupDelay: c.String("cleanup-delay"),
		Theme:        c.String("theme"),
	})
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	// Create new Fyne application
	GlobalApp = app.NewWithID("co.ispapp.minipy")
	_theme := theme.NewAppTheme(theme.VariantByName(cfg.Theme), cfg.FontSize)
	_theme.ApplyTheme(GlobalApp)

	mainUI := ui.NewMainUI(GlobalApp, cfg)
	mainUI.Start(c.Args().First())

	// Show and run the application
	mainUI.Window().ShowAndRun()
	return nil
}
