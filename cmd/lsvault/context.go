package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"losslessvault/internal/catalog"
	"losslessvault/internal/config"
	"losslessvault/internal/engine"
	"losslessvault/internal/logging"
)

type commandContext struct {
	configFlag  *string
	catalogFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, catalogFlag *string) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		catalogFlag: catalogFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.catalogFlag != nil && strings.TrimSpace(*c.catalogFlag) != "" {
			catalogPath, err := config.ExpandPath(strings.TrimSpace(*c.catalogFlag))
			if err != nil {
				c.configErr = fmt.Errorf("resolve catalog path: %w", err)
				return
			}
			cfg.Paths.Catalog = catalogPath
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// withEngine runs fn while holding the catalog write lock.
func (c *commandContext) withEngine(cmd *cobra.Command, fn func(context.Context, *engine.Engine) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}
	ctx := commandCtx(cmd)
	eng, err := engine.Open(ctx, cfg, engine.WithLogger(logger))
	if err != nil {
		return err
	}
	defer eng.Close()
	return fn(ctx, eng)
}

// withCatalog opens the catalog for reads without taking the write lock.
func (c *commandContext) withCatalog(cmd *cobra.Command, fn func(context.Context, *catalog.Catalog) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	ctx := commandCtx(cmd)
	cat, err := catalog.Open(ctx, cfg.Paths.Catalog)
	if err != nil {
		return err
	}
	defer cat.Close()
	return fn(ctx, cat)
}

func commandCtx(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
