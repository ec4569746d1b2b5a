package main

import (
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"newsshorts/config"
	"newsshorts/logger"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	log        *logrus.Logger
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

// ensureConfig loads configuration and the logger once per process.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		if path := strings.TrimSpace(*c.configFlag); path != "" {
			os.Setenv("NEWSSHORTS_CONFIG", path)
		}
		cfg, err := config.Load()
		if err != nil {
			c.configErr = err
			return
		}
		if lvl := strings.TrimSpace(*c.logLevelFlag); lvl != "" {
			cfg.Log.Level = lvl
		}
		log, err := logger.New(cfg.Log.Level, cfg.Log.File)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.log = log
	})
	return c.config, c.configErr
}

func (c *commandContext) logger() *logrus.Logger {
	if c.log == nil {
		return logger.Discard()
	}
	return c.log
}
