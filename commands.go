package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	dashboardApp "dashboard/internal/app"
	"dashboard/internal/config"
	"dashboard/internal/engine"
	"dashboard/internal/httpapi"
	mcpserver "dashboard/internal/mcp"
	"dashboard/internal/secret"
	"dashboard/internal/storage"
)

var (
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *zap.Logger
)

// =============================================================================
// ROOT - desktop editor
// =============================================================================

var rootCmd = &cobra.Command{
	Use:           "dashboard",
	Short:         "Storefront template editor",
	Long:          `Edit storefront collection templates visually, over MCP or from the command line.`,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			c.Logging.Level = logLevel
		}
		if err := c.Validate(); err != nil {
			return err
		}
		l, err := c.NewLogger()
		if err != nil {
			return err
		}
		cfg, logger = c, l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGUI(cfg, logger)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	serveCmd.Flags().String("addr", "", "listen address (default from config)")
	serveCmd.Flags().Bool("mcp", false, "also serve MCP on stdin/stdout")
	renderCmd.Flags().String("layout", "", "layout file (default: configured layout)")
	renderCmd.Flags().StringP("out", "o", "", "output file (default stdout)")
	importCmd.Flags().String("name", "", "template name (default: the template id)")

	configCmd.AddCommand(configInitCmd)
	tokenCmd.AddCommand(tokenSetCmd, tokenClearCmd)
	rootCmd.AddCommand(mcpCmd, serveCmd, renderCmd, importCmd, templatesCmd, configCmd, tokenCmd)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// withRuntime builds the runtime for one-shot commands.
func withRuntime(fn func(ctx context.Context, rt *dashboardApp.Runtime) error) error {
	ctx, cancel := signalContext()
	defer cancel()
	rt, err := dashboardApp.NewRuntime(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer rt.Close(context.Background())
	return fn(ctx, rt)
}

// =============================================================================
// MCP - standalone stdio server
// =============================================================================

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the editor over MCP on stdin/stdout",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()
		return dashboardApp.ServeMCP(ctx, cfg, logger)
	},
}

// =============================================================================
// SERVE - headless preview server
// =============================================================================

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve template previews and editor sessions over HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = cfg.Server.Addr
	}
	withMCP, _ := cmd.Flags().GetBool("mcp")

	ctx, cancel := signalContext()
	defer cancel()

	rt, err := dashboardApp.NewRuntime(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer rt.Close(context.Background())
	if err := rt.Start(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpapi.New(rt.Editor, logger).Run(gctx, addr)
	})
	if withMCP {
		srv := mcpserver.New(mcpserver.Deps{Editor: rt.Editor, Filters: rt.Filters, Logger: logger})
		g.Go(func() error {
			err := srv.ServeStdio()
			cancel()
			return err
		})
	}
	err = g.Wait()

	if n, saveErr := rt.Editor.SaveDirty(context.Background(), "serve exit"); saveErr == nil && n > 0 {
		logger.Info("serve: saved dirty sessions", zap.Int("count", n))
	}
	return err
}

// =============================================================================
// RENDER - one template to HTML
// =============================================================================

var renderCmd = &cobra.Command{
	Use:   "render <templateId>",
	Short: "Render a template to HTML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		layoutFile, _ := cmd.Flags().GetString("layout")
		out, _ := cmd.Flags().GetString("out")

		return withRuntime(func(ctx context.Context, rt *dashboardApp.Runtime) error {
			rec, err := rt.Templates.Get(ctx, args[0])
			if err != nil {
				return err
			}

			var layout string
			if layoutFile != "" {
				layout, err = storage.NewFileSource("", layoutFile).Layout()
			} else {
				layout, err = rt.Templates.Layout()
			}
			if err != nil {
				return err
			}

			html := engine.RenderLayout(layout, engine.RenderAreasMap(rec.Document, rt.Registry))
			if out == "" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), html)
				return err
			}
			if err := os.WriteFile(out, []byte(html), 0644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			logger.Info("render: wrote preview", zap.String("template", rec.ID), zap.String("file", out))
			return nil
		})
	},
}

// =============================================================================
// IMPORT - template document into the store
// =============================================================================

var importCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Validate a template document and store it as a draft",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		doc, err := storage.DecodeTemplate(data)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}

		return withRuntime(func(ctx context.Context, rt *dashboardApp.Runtime) error {
			rec, err := rt.Templates.Import(ctx, doc, name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %s (%s)\n", rec.ID, rec.Status)
			return nil
		})
	},
}

// =============================================================================
// TEMPLATES - list
// =============================================================================

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List stored templates and template files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(func(ctx context.Context, rt *dashboardApp.Runtime) error {
			list, err := rt.Templates.List(ctx)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tSTATUS\tVERSION\tSOURCE\tUPDATED")
			for _, t := range list {
				updated := ""
				if !t.UpdatedAt.IsZero() {
					updated = t.UpdatedAt.Local().Format("2006-01-02 15:04")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n", t.ID, t.Name, t.Status, t.Version, t.Source, updated)
			}
			return w.Flush()
		})
	},
}

// =============================================================================
// CONFIG
// =============================================================================

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), configPath)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the effective configuration to the config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Save(configPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", configPath)
		return nil
	},
}

// =============================================================================
// TOKEN - storefront API credential in the platform secret store
// =============================================================================

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the storefront GraphQL token",
}

var tokenSetCmd = &cobra.Command{
	Use:   "set <token>",
	Short: "Store the GraphQL token in the system keychain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := secret.Default().Set(secret.GraphQLTokenKey, []byte(args[0])); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "token stored")
		return nil
	},
}

var tokenClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored GraphQL token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return secret.Default().Delete(secret.GraphQLTokenKey)
	},
}
